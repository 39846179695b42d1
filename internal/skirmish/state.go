package skirmish

import (
	"fmt"
	"os"

	"github.com/dyluth/skirmish/pkg/aiabi"
)

// Save asks the AI to write its state. The AI receives a SAVE event naming a
// temporary file; its contents are returned once the AI has handled the event.
func (ai *AI) Save() ([]byte, error) {
	if !ai.running() {
		return nil, ErrNotRunning
	}

	f, err := os.CreateTemp("", "skirmish-ai-save-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create save file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close save file: %w", err)
	}

	if code, _ := ai.HandleEvent(aiabi.TopicSave, aiabi.SaveEvent{File: path}); code != 0 {
		return nil, fmt.Errorf("AI %s refused to save: code %d", ai.key, code)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read save file: %w", err)
	}
	return data, nil
}

// Load hands a previously saved state to the AI through a LOAD event.
func (ai *AI) Load(data []byte) error {
	if !ai.running() {
		return ErrNotRunning
	}

	f, err := os.CreateTemp("", "skirmish-ai-load-*")
	if err != nil {
		return fmt.Errorf("failed to create load file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write load file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close load file: %w", err)
	}

	if code, _ := ai.HandleEvent(aiabi.TopicLoad, aiabi.LoadEvent{File: path}); code != 0 {
		return fmt.Errorf("AI %s refused to load: code %d", ai.key, code)
	}
	return nil
}

func (ai *AI) running() bool {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	return ai.state == StateInitialized && !ai.dying
}

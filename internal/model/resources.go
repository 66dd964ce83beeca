package model

import "time"

// Script is a narration script stored by the backend
type Script struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VoiceProfile is a voice stored by the backend, optionally backed by a
// completed clone job
type VoiceProfile struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	AudioFilePath string         `json:"audio_file_path"`
	Parameters    map[string]any `json:"parameters,omitempty"`
	IsCloned      bool           `json:"is_cloned"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

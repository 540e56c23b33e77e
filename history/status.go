package history

import "time"

// EntryInfo is the read-only view of one entry for history lists
type EntryInfo struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Type        EntryType `json:"type"`
	Kind        Kind      `json:"kind"`
	Changes     int       `json:"changes"`
	Timestamp   time.Time `json:"timestamp"`
	IsCurrent   bool      `json:"isCurrent"`
	IsSavePoint bool      `json:"isSavePoint"`
}

// Status is a snapshot of the stack for UI binding
type Status struct {
	CanUndo           bool        `json:"canUndo"`
	CanRedo           bool        `json:"canRedo"`
	CurrentStep       int         `json:"currentStep"`
	TotalSteps        int         `json:"totalSteps"`
	HasUnsavedChanges bool        `json:"hasUnsavedChanges"`
	CurrentSavePoint  int         `json:"currentSavePoint"` // newest save point, -1 if none
	SavePoints        []int       `json:"savePoints"`
	BatchDepth        int         `json:"batchDepth"`
	History           []EntryInfo `json:"history"`
}

// Status projects the current stack state
func (m *Manager) Status() Status {
	s := Status{
		CanUndo:           m.CanUndo(),
		CanRedo:           m.CanRedo(),
		CurrentStep:       m.pointer,
		TotalSteps:        len(m.entries),
		HasUnsavedChanges: m.pointer != -1,
		CurrentSavePoint:  -1,
		SavePoints:        m.SavePoints(),
		BatchDepth:        len(m.batches),
		History:           make([]EntryInfo, len(m.entries)),
	}
	if n := len(m.savePoints); n > 0 {
		s.CurrentSavePoint = m.savePoints[n-1]
	}

	for i, e := range m.entries {
		s.History[i] = EntryInfo{
			ID:          e.ID,
			Label:       e.Label,
			Type:        e.Type,
			Kind:        e.Kind,
			Changes:     len(e.Changes),
			Timestamp:   e.Timestamp,
			IsCurrent:   i == m.pointer,
			IsSavePoint: m.isSavePoint(i),
		}
	}
	return s
}

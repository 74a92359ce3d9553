package config

import (
	"fmt"
	"slices"
)

// WriteMode is the write policy mode.
type WriteMode string

const (
	WriteModeRead      WriteMode = "read"
	WriteModeWrite     WriteMode = "write"
	WriteModeSelective WriteMode = "selective"
)

// Policy decides whether a mutation may proceed.
type Policy struct {
	Mode          WriteMode
	AllowedSpaces []string
	AllowedLists  []string
}

// Policy resolves the effective write policy. An explicit mode wins;
// otherwise the mode is selective when an allow-list is set, else write.
func (w WriteConfig) Policy() Policy {
	mode := w.Mode
	if mode == "" {
		mode = WriteModeWrite
		if len(w.AllowedSpaces) > 0 || len(w.AllowedLists) > 0 {
			mode = WriteModeSelective
		}
	}
	return Policy{Mode: mode, AllowedSpaces: w.AllowedSpaces, AllowedLists: w.AllowedLists}
}

// ReadOnly reports whether write tools should not be registered at all.
func (p Policy) ReadOnly() bool { return p.Mode == WriteModeRead }

// Target names the containers a mutation touches. Empty fields are unknown.
type Target struct {
	SpaceID string
	ListID  string
}

// Check returns an error when the policy forbids mutating t. In selective
// mode a target is allowed when its space or its list is allow-listed.
func (p Policy) Check(t Target) error {
	switch p.Mode {
	case WriteModeRead:
		return fmt.Errorf("write operations are disabled (write mode is %q)", p.Mode)
	case WriteModeSelective:
		if t.SpaceID != "" && slices.Contains(p.AllowedSpaces, t.SpaceID) {
			return nil
		}
		if t.ListID != "" && slices.Contains(p.AllowedLists, t.ListID) {
			return nil
		}
		return fmt.Errorf("write not allowed: space %q and list %q are not in the allow-lists", t.SpaceID, t.ListID)
	default:
		return nil
	}
}

// NeedsTarget reports whether Check needs the target's ids to decide.
func (p Policy) NeedsTarget() bool { return p.Mode == WriteModeSelective }

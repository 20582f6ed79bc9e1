package tuple

import (
	"fmt"

	"coredb/pkg/primitives"
)

// RecordID stably addresses a tuple: the page it lives on plus its slot
// index within that page.
type RecordID struct {
	PageID  primitives.PageID
	SlotNum primitives.SlotID
}

// NewRecordID constructs a RecordID.
func NewRecordID(pid primitives.PageID, slot primitives.SlotID) *RecordID {
	return &RecordID{PageID: pid, SlotNum: slot}
}

// Equals is structural: same PageID and same slot.
func (r *RecordID) Equals(other *RecordID) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.PageID.Equals(other.PageID) && r.SlotNum == other.SlotNum
}

func (r *RecordID) String() string {
	return fmt.Sprintf("RecordID(page=%s, slot=%d)", r.PageID, r.SlotNum)
}

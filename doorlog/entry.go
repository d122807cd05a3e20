package doorlog

import (
	"github.com/jrsteele09/go-intercom-bridge/internal/utils"
)

// Entry is one activity log record. JSON keys match the upstream so a
// persisted entry round-trips unchanged.
type Entry struct {
	CaptureTime string `json:"CaptureTime"`
	Initiator   string `json:"Initiator"`
	CaptureType string `json:"CaptureType"`
	Location    string `json:"Location"`
	MAC         string `json:"MAC"`
	Relay       string `json:"Relay"`
	PicURL      string `json:"PicUrl"`
}

// EntryFromMap reads an upstream activity record.
func EntryFromMap(m map[string]any) Entry {
	return Entry{
		CaptureTime: utils.AnyToString(m["CaptureTime"]),
		Initiator:   utils.AnyToString(m["Initiator"]),
		CaptureType: utils.AnyToString(m["CaptureType"]),
		Location:    utils.AnyToString(m["Location"]),
		MAC:         utils.AnyToString(m["MAC"]),
		Relay:       utils.AnyToString(m["Relay"]),
		PicURL:      utils.AnyToString(m["PicUrl"]),
	}
}

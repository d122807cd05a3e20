package directory

import (
	"time"
)

// TimeLayout is the upstream's dd-mm-YYYY HH:MM:SS date format.
const TimeLayout = "02-01-2006 15:04:05"

// Camera is one device with a video stream.
type Camera struct {
	Name      string `json:"name"`
	StreamURL string `json:"stream_url"`
}

// Relay is one openable door on a device.
type Relay struct {
	Name     string `json:"name"`
	DoorName string `json:"door_name"`
	RelayID  string `json:"relay_id"`
	MAC      string `json:"device_mac"`
}

// TempKeyDoor is a door a temporary key grants access to.
type TempKeyDoor struct {
	DoorID string `json:"door_id"`
	KeyID  string `json:"key_id"`
	Relay  string `json:"relay"`
	MAC    string `json:"device_mac"`
}

// TempKey is a time-boxed visitor access code.
type TempKey struct {
	KeyID            string        `json:"key_id"`
	Description      string        `json:"description"`
	Code             string        `json:"code"`
	BeginTime        string        `json:"begin_time"`
	EndTime          string        `json:"end_time"`
	AccessTimes      int           `json:"access_times"`
	AllowedTimes     int           `json:"allowed_times"`
	EachAllowedTimes int           `json:"each_allowed_times"`
	QRCodeURL        string        `json:"qr_code_url"`
	Expired          bool          `json:"expired"`
	Doors            []TempKeyDoor `json:"doors"`
}

// Window parses the key's validity period.
func (k TempKey) Window() (begin, end time.Time, err error) {
	begin, err = time.ParseInLocation(TimeLayout, k.BeginTime, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = time.ParseInLocation(TimeLayout, k.EndTime, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return begin, end, nil
}

// Active reports whether now falls inside the key's window. Keys with an
// unparseable window are never active.
func (k TempKey) Active(now time.Time) bool {
	begin, end, err := k.Window()
	if err != nil {
		return false
	}
	return !now.Before(begin) && !now.After(end)
}

func (k TempKey) clone() TempKey {
	k.Doors = append([]TempKeyDoor(nil), k.Doors...)
	return k
}

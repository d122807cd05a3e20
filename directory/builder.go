package directory

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-intercom-bridge/internal/utils"
	"github.com/rs/zerolog/log"
)

// Devices is the result of parsing a userconf payload.
type Devices struct {
	ProjectName string
	Cameras     []Camera
	Relays      []Relay
}

// StreamURL builds a device's RTSP address.
func StreamURL(password, rtspIP, mac string) string {
	return fmt.Sprintf("rtsp://ak:%s@%s:554/%s", password, rtspIP, mac)
}

// RTSPIPFromServer strips the port from an rtmp_server value.
func RTSPIPFromServer(server string) string {
	ip, _, _ := strings.Cut(server, ":")
	return ip
}

// BuildFromUserConfig parses a userconf payload. Devices missing a location
// or MAC are skipped individually.
func BuildFromUserConfig(payload map[string]any, rtspIP string) Devices {
	var d Devices
	if payload == nil {
		return d
	}

	if appConf, ok := payload["app_conf"].(map[string]any); ok {
		d.ProjectName = strings.TrimSpace(utils.AnyToString(appConf["project_name"]))
	}

	devList, _ := payload["dev_list"].([]any)
	for i, raw := range devList {
		dev, ok := raw.(map[string]any)
		if !ok {
			log.Warn().Int("index", i).Msg("skipping malformed device entry")
			continue
		}
		name := strings.TrimSpace(utils.AnyToString(dev["location"]))
		mac := utils.AnyToString(dev["mac"])
		if name == "" || mac == "" {
			log.Warn().Int("index", i).Msg("skipping device without location or mac")
			continue
		}

		if pwd, ok := dev["rtsp_pwd"]; ok {
			d.Cameras = append(d.Cameras, Camera{
				Name:      name,
				StreamURL: StreamURL(utils.AnyToString(pwd), rtspIP, mac),
			})
		}

		relays, _ := dev["relay"].([]any)
		for _, rr := range relays {
			relay, ok := rr.(map[string]any)
			if !ok {
				continue
			}
			id, ok := relay["relay_id"]
			if !ok {
				continue
			}
			d.Relays = append(d.Relays, Relay{
				Name:     name,
				DoorName: strings.TrimSpace(utils.AnyToString(relay["door_name"])),
				RelayID:  utils.AnyToString(id),
				MAC:      mac,
			})
		}
	}

	log.Debug().Int("cameras", len(d.Cameras)).Int("relays", len(d.Relays)).Str("project", d.ProjectName).Msg("parsed device configuration")
	return d
}

// TempKeyOptions controls temp key parsing.
type TempKeyOptions struct {
	QRCodeHost         string // prefixed onto the relative QrCodeUrl
	ExpiredPassthrough bool   // report the upstream's Expired flag unchanged
}

// BuildTempKeys parses a temp key list payload.
func BuildTempKeys(payload []any, opts TempKeyOptions) []TempKey {
	keys := make([]TempKey, 0, len(payload))
	for i, raw := range payload {
		k, ok := raw.(map[string]any)
		if !ok {
			log.Warn().Int("index", i).Msg("skipping malformed temp key entry")
			continue
		}
		id := utils.AnyToString(k["ID"])
		if id == "" {
			log.Warn().Int("index", i).Msg("skipping temp key without ID")
			continue
		}

		expired := utils.AnyToBool(k["Expired"])
		if !opts.ExpiredPassthrough {
			expired = !expired
		}

		key := TempKey{
			KeyID:            id,
			Description:      utils.AnyToString(k["Description"]),
			Code:             utils.AnyToString(k["TmpKey"]),
			BeginTime:        utils.AnyToString(k["BeginTime"]),
			EndTime:          utils.AnyToString(k["EndTime"]),
			AccessTimes:      utils.AnyToInt(k["AccessTimes"]),
			AllowedTimes:     utils.AnyToInt(k["AllowedTimes"]),
			EachAllowedTimes: utils.AnyToInt(k["EachAllowedTimes"]),
			Expired:          expired,
		}
		if qr := utils.AnyToString(k["QrCodeUrl"]); qr != "" {
			key.QRCodeURL = strings.TrimRight(opts.QRCodeHost, "/") + qr
		}

		doors, _ := k["Doors"].([]any)
		for _, rd := range doors {
			door, ok := rd.(map[string]any)
			if !ok {
				continue
			}
			key.Doors = append(key.Doors, TempKeyDoor{
				DoorID: utils.AnyToString(door["ID"]),
				KeyID:  utils.AnyToString(door["KeyID"]),
				Relay:  utils.AnyToString(door["Relay"]),
				MAC:    utils.AnyToString(door["MAC"]),
			})
		}
		keys = append(keys, key)
	}
	log.Debug().Int("keys", len(keys)).Msg("parsed temporary keys")
	return keys
}

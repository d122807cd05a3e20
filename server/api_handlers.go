package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/go-intercom-bridge/directory"
	internalerrors "github.com/jrsteele09/go-intercom-bridge/internal/errors"
	"github.com/jrsteele09/go-intercom-bridge/internal/locations"
	"github.com/jrsteele09/go-intercom-bridge/internal/utils"
	"github.com/jrsteele09/go-intercom-bridge/sessions"
)

type statusResponse struct {
	State            string     `json:"state"`
	Authenticated    bool       `json:"authenticated"`
	AppType          string     `json:"app_type"`
	Host             string     `json:"host"`
	Subdomain        string     `json:"subdomain"`
	Token            string     `json:"token"`
	TokenExpiry      *time.Time `json:"token_expiry,omitempty"`
	LastTokenRefresh *time.Time `json:"last_token_refresh,omitempty"`
	ProjectName      string     `json:"project_name"`
	WaitForImageURL  bool       `json:"wait_for_image_url"`
	PollerRunning    bool       `json:"poller_running"`
	Subscribers      int        `json:"subscribers"`
	StoredKeys       []string   `json:"stored_keys"`
}

func (s *Server) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := s.auth.Session()
		d := session.Snapshot()

		resp := statusResponse{
			State:            d.State.String(),
			Authenticated:    d.State.Authenticated(),
			AppType:          string(d.AppType),
			Host:             d.Host,
			Subdomain:        d.Subdomain,
			Token:            utils.Mask(d.Token),
			LastTokenRefresh: d.LastTokenRefresh,
			ProjectName:      d.ProjectName,
			WaitForImageURL:  d.WaitForImageURL,
			Subscribers:      s.bus.Subscribers(),
		}
		if tok, err := session.TokenSource(s.config.GetTokenExpiry()).Token(); err == nil && !tok.Expiry.IsZero() {
			resp.TokenExpiry = utils.Ptr(tok.Expiry)
		}
		if s.poller != nil {
			resp.PollerRunning = s.poller.Running()
		}
		keys, err := s.auth.StoredKeys(r.Context())
		if err != nil {
			writeBridgeError(w, r, err)
			return
		}
		resp.StoredKeys = keys
		writeJSON(w, resp, http.StatusOK)
	}
}

func (s *Server) Locations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, locations.Countries(), http.StatusOK)
	}
}

// available rejects directory reads while the account needs a new sign-in.
func (s *Server) available(w http.ResponseWriter, r *http.Request) bool {
	if s.auth.Session().State() == sessions.StateDegraded {
		writeBridgeError(w, r, internalerrors.ErrDegraded)
		return false
	}
	return true
}

func (s *Server) Cameras() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.available(w, r) {
			return
		}
		writeJSON(w, s.auth.Directory().Cameras(), http.StatusOK)
	}
}

func (s *Server) Relays() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.available(w, r) {
			return
		}
		writeJSON(w, s.auth.Directory().Relays(), http.StatusOK)
	}
}

type tempKeyView struct {
	directory.TempKey
	Active bool `json:"active"`
}

// TempKeys lists visitor keys. ?active=true keeps only keys valid now.
func (s *Server) TempKeys() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.available(w, r) {
			return
		}
		onlyActive, _ := strconv.ParseBool(r.URL.Query().Get("active"))

		now := s.nowTime()
		keys := s.auth.Directory().TempKeys()
		out := make([]tempKeyView, 0, len(keys))
		for _, k := range keys {
			active := k.Active(now)
			if onlyActive && !active {
				continue
			}
			out = append(out, tempKeyView{TempKey: k, Active: active})
		}
		writeJSON(w, out, http.StatusOK)
	}
}

func (s *Server) OpenRelay() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relay, err := s.auth.Directory().FindRelay(r.PathValue("mac"), r.PathValue("relay"))
		if err != nil {
			writeBridgeError(w, r, err)
			return
		}
		if err := s.auth.OpenDoor(r.Context(), relay); err != nil {
			writeBridgeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// PollDoorLog runs one poll cycle now and returns the emitted entry, if any.
func (s *Server) PollDoorLog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.poller == nil {
			writeBridgeError(w, r, internalerrors.ErrNotRunning)
			return
		}
		entry, err := s.poller.PollOnce(r.Context())
		if err != nil {
			writeBridgeError(w, r, err)
			return
		}
		if entry == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, entry, http.StatusOK)
	}
}

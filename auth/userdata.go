package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-intercom-bridge/directory"
	"github.com/jrsteele09/go-intercom-bridge/gateway"
	internalerrors "github.com/jrsteele09/go-intercom-bridge/internal/errors"
	"github.com/jrsteele09/go-intercom-bridge/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// RetrieveUserData validates the token then rebuilds devices and temp keys.
func (s *Service) RetrieveUserData(ctx context.Context) error {
	if err := s.ServersList(ctx); err != nil {
		return err
	}
	if err := s.RetrieveDeviceData(ctx); err != nil {
		return err
	}
	return s.RetrieveTempKeys(ctx)
}

// RetrieveDeviceData fetches userconf and replaces the device snapshot.
func (s *Service) RetrieveDeviceData(ctx context.Context) error {
	if err := s.ensureHost(ctx); err != nil {
		return errors.Wrap(err, "[RetrieveDeviceData] resolving host")
	}
	d := s.session.Snapshot()

	res, err := s.sender.Send(ctx, gateway.Request{
		Method:  http.MethodGet,
		URL:     s.endpoints.HostURL(d.Host, gateway.APIUserConf) + "?token=" + url.QueryEscape(d.Token),
		Headers: gateway.AppHeaders(d.Host, d.Token, gateway.UserConfAPIVersion),
	})
	if err != nil {
		return errors.Wrap(err, "[RetrieveDeviceData]")
	}
	payload, err := res.Object()
	if err != nil {
		return errors.Wrap(err, "[RetrieveDeviceData]")
	}

	devices := directory.BuildFromUserConfig(payload, d.RTSPIP)
	s.directory.ReplaceDevices(devices)
	if devices.ProjectName != "" {
		s.session.SetProjectName(devices.ProjectName)
	}
	return nil
}

// RetrieveTempKeys fetches the temp key list and replaces the key snapshot.
// The upstream's "no data" marker yields an empty list.
func (s *Service) RetrieveTempKeys(ctx context.Context) error {
	d := s.session.Snapshot()
	referer := s.endpoints.WebURL(fmt.Sprintf("/smartplus/TmpKey.html?TOKEN=%s&USERTYPE=20&VERSION=6.6", url.QueryEscape(d.Token)))

	res, err := s.sender.Send(ctx, gateway.Request{
		Method:  http.MethodGet,
		URL:     s.endpoints.AppURL(d.AppType.PathSegment(), gateway.APITempKeyList),
		Headers: gateway.WebHeaders(d.Token, s.resolve(referer)),
	})
	if err != nil {
		return errors.Wrap(err, "[RetrieveTempKeys]")
	}

	var list []any
	if !res.Empty() {
		if err := res.Decode(&list); err != nil {
			return errors.Wrap(internalerrors.ErrProtocol, err.Error())
		}
	}

	opts := s.tempKeyOpts
	if opts.QRCodeHost == "" {
		opts.QRCodeHost = s.endpoints.Web
	}
	opts.QRCodeHost = s.resolve(opts.QRCodeHost)
	s.directory.ReplaceTempKeys(directory.BuildTempKeys(list, opts))
	return nil
}

// OpenDoor triggers one relay.
func (s *Service) OpenDoor(ctx context.Context, relay directory.Relay) error {
	d := s.session.Snapshot()
	if d.State == sessions.StateDegraded {
		return errors.Wrap(internalerrors.ErrDegraded, "[OpenDoor]")
	}
	if d.Host == "" {
		return errors.Wrap(internalerrors.ErrConfiguration, "[OpenDoor] rest host unknown")
	}

	log.Info().Str("door", relay.Name).Str("relay", relay.RelayID).Msg("opening door")
	body := fmt.Sprintf("mac=%s&relay=%s", relay.MAC, relay.RelayID)
	res, err := s.sender.Send(ctx, gateway.Request{
		Method:  http.MethodPost,
		URL:     s.endpoints.HostURL(d.Host, gateway.APIOpenDoor) + "?token=" + url.QueryEscape(d.Token),
		Headers: gateway.OpenDoorHeaders(d.Host, d.Token),
		Body:    []byte(body),
	})
	if err != nil {
		return errors.Wrapf(err, "[OpenDoor] %s", relay.Name)
	}
	if res.Empty() {
		return errors.Wrapf(internalerrors.ErrProtocol, "[OpenDoor] %s rejected", relay.Name)
	}
	return nil
}

// resolve fills the subdomain placeholder for URLs that leave the bridge
// without passing through the gateway.
func (s *Service) resolve(raw string) string {
	return strings.ReplaceAll(raw, gateway.SubdomainPlaceholder, s.session.Subdomain()+".")
}

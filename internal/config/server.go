package config

//
// server.go
// Copyright (C) 2026 Karol Będkowski <Karol Będkowski@kkomp>
//
// Distributed under terms of the GPLv3 license.
//

import (
	"net"
	"net/http"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gitlab.com/kabes/go-poddir/internal/aerr"
)

// ListenConf configure single listening address.
type ListenConf struct {
	Address string
	WebRoot string
	TLSKey  string
	TLSCert string
}

func (c *ListenConf) Validate() error {
	if c.Address == "" {
		return aerr.ErrValidation.WithUserMsg("listen address can't be empty")
	}

	if (c.TLSKey == "") != (c.TLSCert == "") {
		return aerr.ErrValidation.WithUserMsg("both tls key and cert must be defined")
	}

	return nil
}

func (c *ListenConf) TLSEnabled() bool {
	return c.TLSKey != ""
}

//-------------------------------------------------------------

// ServerConf configure api and mgmt servers.
type ServerConf struct {
	MainServer ListenConf
	MgmtServer ListenConf

	DebugFlags     DebugFlags
	EnableMetrics  bool
	MgmtAccessList string

	mgmtAccessList *AccessList
}

func (c *ServerConf) Validate() error {
	if err := c.MainServer.Validate(); err != nil {
		return aerr.Wrapf(err, "validate main server configuration failed")
	}

	if c.MgmtServer.Address != "" {
		if err := c.MgmtServer.Validate(); err != nil {
			return aerr.Wrapf(err, "validate mgmt server configuration failed")
		}
	}

	if c.MgmtAccessList != "" {
		al, err := NewAccessList(c.MgmtAccessList)
		if err != nil {
			return aerr.Wrapf(err, "validate mgmt access list failed")
		}

		c.mgmtAccessList = al

		log.Logger.Debug().Object("mgmtAccessList", al).Msg("mgmt access list configured")
	}

	return nil
}

// SeparateMgmtEnabled report whether mgmt endpoints run on own server.
func (c *ServerConf) SeparateMgmtEnabled() bool {
	return c.MgmtServer.Address != "" && c.MgmtServer.Address != c.MainServer.Address
}

// MgmtEnabledOnMainServer report whether mgmt endpoints share the api server.
func (c *ServerConf) MgmtEnabledOnMainServer() bool {
	return c.MgmtServer.Address != "" && c.MgmtServer.Address == c.MainServer.Address
}

// AuthMgmtRequest decide about access to mgmt endpoints by request remote
// address. First result allow access at all, second allow sensitive data
// (traces, debug). Localhost and loopback get both; access list entries
// get both; without access list private addresses get plain access only.
func (c *ServerConf) AuthMgmtRequest(req *http.Request) (bool, bool) {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}

	if host == "localhost" {
		return true, true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false, false
	}

	if ip.IsLoopback() {
		return true, true
	}

	if c.mgmtAccessList != nil {
		return c.mgmtAccessList.HasAccess(ip), true
	}

	return ip.IsPrivate(), false
}

//-------------------------------------------------------------

// AccessList hold parsed address filter; entries are single addresses
// or CIDR networks.
type AccessList struct {
	AllowedIPs  []net.IP
	AllowedNets []*net.IPNet
}

func NewAccessList(accesslist string) (*AccessList, error) {
	al := &AccessList{}

	for entry := range strings.SplitSeq(accesslist, ",") {
		if err := al.addEntry(strings.TrimSpace(entry)); err != nil {
			return nil, err
		}
	}

	return al, nil
}

func (a *AccessList) addEntry(entry string) error {
	if strings.Contains(entry, "/") {
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			return aerr.ErrValidation.WithUserMsg(
				"invalid entry in access list: entry=%q error=%q", entry, err)
		}

		a.AllowedNets = append(a.AllowedNets, network)

		return nil
	}

	ip := net.ParseIP(entry)
	if ip == nil {
		return aerr.ErrValidation.WithUserMsg("invalid entry in access list: entry=%q", entry)
	}

	a.AllowedIPs = append(a.AllowedIPs, ip)

	return nil
}

func (a *AccessList) HasAccess(ip net.IP) bool {
	return slices.ContainsFunc(a.AllowedIPs, ip.Equal) ||
		slices.ContainsFunc(a.AllowedNets, func(n *net.IPNet) bool { return n.Contains(ip) })
}

func (a *AccessList) MarshalZerologObject(event *zerolog.Event) {
	event.Interface("allowed_ips", a.AllowedIPs).
		Interface("allowed_nets", a.AllowedNets)
}

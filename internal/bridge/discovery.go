// discovery.go — LAN discovery of running daemons over mDNS.
// Pages on other machines find the daemon by browsing _annotrail._tcp
// instead of being configured with an address.
package bridge

import (
	"fmt"
	"os"

	"github.com/hashicorp/mdns"
)

const serviceType = "_annotrail._tcp"

// Discovery advertises this daemon on the local network.
type Discovery struct {
	server *mdns.Server
}

// Advertise announces the bridge on the LAN. Returns a Discovery whose
// Close stops the announcement.
func Advertise(port int) (*Discovery, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("discovery_hostname_failed: Could not determine hostname: %w", err)
	}
	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{"annotrail"})
	if err != nil {
		return nil, fmt.Errorf("discovery_service_failed: Could not create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("discovery_start_failed: Could not start mDNS server: %w", err)
	}
	return &Discovery{server: server}, nil
}

// Close stops advertising. Safe on a nil receiver.
func (d *Discovery) Close() {
	if d == nil || d.server == nil {
		return
	}
	if err := d.server.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "[annotrail] mdns shutdown failed: %v\n", err)
	}
}

// Browse looks up daemons on the LAN, invoking found for each address
// discovered during the lookup window.
func Browse(found func(addr string)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	go func() {
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found(fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port))
		}
	}()
	if err := mdns.Lookup(serviceType, entries); err != nil {
		return fmt.Errorf("discovery_lookup_failed: mDNS lookup failed: %w", err)
	}
	return nil
}

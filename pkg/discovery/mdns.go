package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// AdvertiserConfig configures an Advertiser.
type AdvertiserConfig struct {
	// Interface restricts advertising to one interface. Empty means all.
	Interface string

	// TTL overrides the record TTL when positive.
	TTL time.Duration
}

// Advertiser announces one PV data server.
type Advertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates an advertiser.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	return &Advertiser{config: config}
}

// Advertise starts announcing info, replacing a previous announcement.
func (a *Advertiser) Advertise(info *ServerInfo) error {
	name := info.Name
	if name == "" {
		host, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to derive instance name: %w", err)
		}
		name = host
	}
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	if err := ValidateInstanceName(name); err != nil {
		return err
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	server, err := zeroconf.Register(
		name,
		ServiceType,
		Domain,
		info.Port,
		TXTRecordsToStrings(EncodeServerTXT(info)),
		interfaces(a.config.Interface),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	a.server = server
	return nil
}

// Update replaces the TXT records of the running announcement.
func (a *Advertiser) Update(info *ServerInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return ErrNotAdvertising
	}
	a.server.SetText(TXTRecordsToStrings(EncodeServerTXT(info)))
	return nil
}

// Stop withdraws the announcement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// BrowserConfig configures a Browser.
type BrowserConfig struct {
	// Interface restricts browsing to one interface. Empty means all.
	Interface string

	Logger *slog.Logger
}

// Browser finds PV data servers.
type Browser struct {
	config BrowserConfig
	logger *slog.Logger
}

// NewBrowser creates a browser.
func NewBrowser(config BrowserConfig) *Browser {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{config: config, logger: logger}
}

// Browse emits each server once, as soon as its first record arrives.
// Addresses from several interfaces are merged into one Service. The
// channel is closed when ctx ends.
func (b *Browser) Browse(ctx context.Context) (<-chan *Service, error) {
	out := make(chan *Service)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if ifaces := interfaces(b.config.Interface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}

	go func() {
		defer close(out)

		services := make(map[string]*Service)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc, err := entryToService(entry)
				if err != nil {
					b.logger.Debug("ignoring service", "instance", entry.Instance, "error", err)
					continue
				}
				if existing, found := services[svc.Instance]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}
				services[svc.Instance] = svc
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				if existing, found := services[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, ipStrings(entry.AddrIPv4, entry.AddrIPv6))
					if len(existing.Addresses) == 0 {
						delete(services, entry.Instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		if err := zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...); err != nil {
			b.logger.Warn("mDNS browse failed", "error", err)
		}
	}()

	return out, nil
}

// FindAll browses for timeout and returns every server seen.
func (b *Browser) FindAll(ctx context.Context, timeout time.Duration) ([]*Service, error) {
	if timeout <= 0 {
		timeout = BrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	var all []*Service
	for svc := range results {
		all = append(all, svc)
	}
	return all, nil
}

func entryToService(entry *zeroconf.ServiceEntry) (*Service, error) {
	return newService(entry.Instance, entry.HostName, entry.Port, entry.Text, ipStrings(entry.AddrIPv4, entry.AddrIPv6))
}

func newService(instance, host string, port int, text, addrs []string) (*Service, error) {
	svc := &Service{
		Instance:  instance,
		Host:      host,
		Port:      port,
		Addresses: addrs,
	}
	if err := DecodeServerTXT(StringsToTXTRecords(text), svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func ipStrings(v4, v6 []net.IP) []string {
	addrs := make([]string, 0, len(v4)+len(v6))
	for _, ip := range v4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range v6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

// interfaces returns the named interface, or nil for all interfaces.
func interfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// mergeAddresses adds new addresses to existing, avoiding duplicates.
func mergeAddresses(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range added {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses drops gone from addresses.
func removeAddresses(addresses, gone []string) []string {
	drop := make(map[string]bool, len(gone))
	for _, addr := range gone {
		drop[addr] = true
	}
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !drop[addr] {
			result = append(result, addr)
		}
	}
	return result
}

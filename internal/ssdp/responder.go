package ssdp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/net/ipv4"

	"github.com/nerrad567/huebridge/internal/infrastructure/config"
)

// maxDatagram is the read buffer size. SSDP messages fit in one datagram.
const maxDatagram = 2048

// State is the responder lifecycle state.
type State int32

// Responder states. Transitions only move forward:
//
//	Idle -> Starting -> Listening -> Closed
//	Idle -> Starting -> Closed        (bind failure)
const (
	StateIdle State = iota
	StateStarting
	StateListening
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Logger defines the logging interface used by the Responder.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Observer receives discovery events, typically for metrics.
type Observer interface {
	ObserveSSDPMessage(kind string)
	ObserveSSDPReply(err error)
}

// Responder answers SSDP discover searches for the bridge.
//
// Thread Safety:
//   - Start and Close may be called from any goroutine.
//   - Datagrams are handled sequentially on one read goroutine.
type Responder struct {
	cfg        config.SSDPConfig
	reply      Reply
	advertised string

	state atomic.Int32

	conn net.PacketConn
	pc   *ipv4.PacketConn

	// routedAddr resolves the local address used to reach dst. Replaced in tests.
	routedAddr func(dst *net.UDPAddr) (net.IP, error)

	logger   Logger
	observer Observer

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a Responder in the Idle state.
//
// Parameters:
//   - cfg: discovery settings (group address, interface, reply headers)
//   - port: control plane port used in the LOCATION header
//   - advertisedHost: fallback host when no interface address can be found
func New(cfg config.SSDPConfig, port int, advertisedHost string) *Responder {
	r := &Responder{
		cfg: cfg,
		reply: Reply{
			NT:       cfg.DeviceType,
			Server:   cfg.Server,
			ST:       cfg.DeviceType,
			USN:      cfg.USN,
			Location: LocationTemplate(port, cfg.SetupPath),
		},
		advertised: advertisedHost,
		routedAddr: routedAddr,
		logger:     noopLogger{},
		done:       make(chan struct{}),
	}
	r.state.Store(int32(StateIdle))
	return r
}

// SetLogger sets the logger for the responder.
func (r *Responder) SetLogger(logger Logger) {
	r.logger = logger
}

// SetObserver registers an observer for discovery events.
// Must be called before Start.
func (r *Responder) SetObserver(o Observer) {
	r.observer = o
}

// State returns the current lifecycle state.
func (r *Responder) State() State {
	return State(r.state.Load())
}

// Addr returns the bound socket address, or nil before Start.
func (r *Responder) Addr() net.Addr {
	if r.conn == nil {
		return nil
	}
	return r.conn.LocalAddr()
}

// Done is closed when the read loop has exited.
func (r *Responder) Done() <-chan struct{} {
	return r.done
}

// Start binds the discovery socket, joins the multicast group and starts
// answering in the background until ctx is cancelled or Close is called.
//
// Any error returned here means the bridge cannot be discovered.
func (r *Responder) Start(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateStarting)) {
		return ErrAlreadyStarted
	}

	if err := r.bind(ctx); err != nil {
		r.state.Store(int32(StateClosed))
		r.closeOnce.Do(func() { close(r.done) })
		return err
	}

	if !r.state.CompareAndSwap(int32(StateStarting), int32(StateListening)) {
		// Close won the race.
		r.conn.Close() //nolint:errcheck // Best effort cleanup on error path
		r.closeOnce.Do(func() { close(r.done) })
		return fmt.Errorf("%w: closed during start", ErrBind)
	}
	r.logger.Info("ssdp server listening", "address", r.conn.LocalAddr().String(), "group", r.cfg.Address)

	go r.loop()
	go func() {
		select {
		case <-ctx.Done():
			r.Close() //nolint:errcheck // Shutdown
		case <-r.done:
		}
	}()
	return nil
}

// bind opens the socket and joins the group.
func (r *Responder) bind(ctx context.Context) error {
	group, err := net.ResolveUDPAddr("udp4", r.cfg.Address)
	if err != nil {
		return fmt.Errorf("%w: resolving %s: %w", ErrBind, r.cfg.Address, err)
	}

	// A multicast group is received on the wildcard address; anything else
	// is bound as given.
	listen := group.String()
	if group.IP.IsMulticast() {
		listen = net.JoinHostPort(net.IPv4zero.String(), strconv.Itoa(group.Port))
	}

	lc := net.ListenConfig{Control: reuseAddr}
	conn, err := lc.ListenPacket(ctx, "udp4", listen)
	if err != nil {
		return fmt.Errorf("%w: listening on %s: %w", ErrBind, listen, err)
	}

	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetControlMessage(ipv4.FlagInterface|ipv4.FlagDst, true); err != nil {
		// Replies then fall back to the routed address.
		r.logger.Debug("ssdp control messages unavailable", "error", err)
	}

	if group.IP.IsMulticast() {
		if err := r.join(pc, group); err != nil {
			conn.Close() //nolint:errcheck // Best effort cleanup on error path
			return err
		}
	}

	r.conn = conn
	r.pc = pc
	return nil
}

// join adds the group membership on the configured interface, or on every
// up, multicast-capable interface.
func (r *Responder) join(pc *ipv4.PacketConn, group *net.UDPAddr) error {
	gaddr := &net.UDPAddr{IP: group.IP}

	if r.cfg.Interface != "" {
		ifi, err := net.InterfaceByName(r.cfg.Interface)
		if err != nil {
			return fmt.Errorf("%w: interface %q: %w", ErrBind, r.cfg.Interface, err)
		}
		if err := pc.JoinGroup(ifi, gaddr); err != nil {
			return fmt.Errorf("%w: joining %s on %s: %w", ErrBind, group.IP, ifi.Name, err)
		}
		return nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return fmt.Errorf("%w: listing interfaces: %w", ErrBind, err)
	}

	joined := 0
	for i := range ifaces {
		ifi := &ifaces[i]
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagMulticast == 0 {
			continue
		}
		if err := pc.JoinGroup(ifi, gaddr); err != nil {
			r.logger.Debug("ssdp join skipped", "interface", ifi.Name, "error", err)
			continue
		}
		r.logger.Debug("ssdp joined group", "interface", ifi.Name, "group", group.IP.String())
		joined++
	}

	if joined == 0 {
		// Let the kernel pick the interface.
		if err := pc.JoinGroup(nil, gaddr); err != nil {
			return fmt.Errorf("%w: joining %s: %w", ErrBind, group.IP, err)
		}
	}
	return nil
}

// Close stops the responder. It is safe to call more than once.
func (r *Responder) Close() error {
	prev := State(r.state.Swap(int32(StateClosed)))
	if prev == StateClosed {
		return nil
	}

	var err error
	if r.conn != nil {
		err = r.conn.Close()
	} else {
		r.closeOnce.Do(func() { close(r.done) })
	}

	r.logger.Info("ssdp closing")
	return err
}

// loop reads datagrams until the socket is closed.
func (r *Responder) loop() {
	defer r.closeOnce.Do(func() { close(r.done) })

	buf := make([]byte, maxDatagram)
	for {
		n, cm, src, err := r.pc.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || r.State() == StateClosed {
				return
			}
			r.logger.Warn("ssdp read failed", "error", err)
			continue
		}

		udp, ok := src.(*net.UDPAddr)
		if !ok {
			continue
		}
		r.handle(buf[:n], cm, udp)
	}
}

// handle processes one datagram. Untrusted input never stops the loop.
func (r *Responder) handle(data []byte, cm *ipv4.ControlMessage, src *net.UDPAddr) {
	msg, err := Parse(data)
	if err != nil {
		r.logger.Debug("ssdp datagram dropped", "from", src.String(), "error", err)
		return
	}

	if r.observer != nil {
		r.observer.ObserveSSDPMessage(string(msg.Kind))
	}

	switch msg.Kind {
	case KindNotify:
		r.logger.Debug("NOTIFY", "from", src.String(), "nt", msg.Get("NT"), "nts", msg.Get("NTS"))

	case KindFound:
		r.logger.Info("FOUND", "from", src.String(), "st", msg.Get("ST"), "usn", msg.Get("USN"))

	case KindSearch:
		r.logger.Debug("SEARCH", "from", src.String(), "st", msg.Get("ST"), "man", msg.Get("MAN"))
		if !msg.IsDiscover() {
			return
		}
		r.respond(cm, src)
	}
}

// respond sends the unicast reply to a discover search.
func (r *Responder) respond(cm *ipv4.ControlMessage, src *net.UDPAddr) {
	host := r.resolveHost(cm, src)
	payload := r.reply.Render(host)

	_, err := r.pc.WriteTo(payload, nil, src)
	if r.observer != nil {
		r.observer.ObserveSSDPReply(err)
	}
	if err != nil {
		r.logger.Warn("ssdp reply failed", "to", src.String(), "error", err)
		return
	}
	r.logger.Debug("ssdp reply sent", "to", src.String(), "host", host)
}

// resolveHost picks the address put into LOCATION:
//  1. the IPv4 address of the interface the search arrived on
//  2. the local address the kernel routes to the searcher
//  3. the advertised host
func (r *Responder) resolveHost(cm *ipv4.ControlMessage, src *net.UDPAddr) string {
	if cm != nil && cm.IfIndex > 0 {
		if ip := interfaceIPv4(cm.IfIndex); ip != nil {
			return ip.String()
		}
	}
	if r.routedAddr != nil {
		if ip, err := r.routedAddr(src); err == nil && ip != nil && !ip.IsUnspecified() {
			return ip.String()
		}
	}
	return r.advertised
}

// interfaceIPv4 returns the first IPv4 address of the interface with index.
func interfaceIPv4(index int) net.IP {
	ifi, err := net.InterfaceByIndex(index)
	if err != nil {
		return nil
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		if ipn, ok := a.(*net.IPNet); ok {
			if ip4 := ipn.IP.To4(); ip4 != nil {
				return ip4
			}
		}
	}
	return nil
}

// routedAddr asks the kernel which local address it would use to reach dst.
// No packet is sent.
func routedAddr(dst *net.UDPAddr) (net.IP, error) {
	conn, err := net.DialUDP("udp4", nil, dst)
	if err != nil {
		return nil, err
	}
	defer conn.Close() //nolint:errcheck // Probe socket

	local, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("unexpected local address %T", conn.LocalAddr())
	}
	return local.IP, nil
}

package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/danmuck/dhcpwire/internal/capture"
	"github.com/danmuck/dhcpwire/internal/config"
	"github.com/danmuck/dhcpwire/internal/endpoint"
	"github.com/danmuck/dhcpwire/internal/observability"
	"github.com/danmuck/dhcpwire/internal/protocol"
	"github.com/danmuck/dhcpwire/internal/protocol/schema"
)

func main() {
	observability.InitLogger("dhcpctl")
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dhcpctl: %v\n", err)
		os.Exit(1)
	}
}

func formatFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Usage:   "Output format: text, json or yaml.",
		Value:   formatText,
		Aliases: []string{"f"},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "dhcpctl",
		Usage:    "Decode, build and observe DHCPv4 packets",
		HelpName: "dhcpctl",
		Commands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "Decode a packet from hex or every DHCP datagram in a pcap capture.",
				UsageText: "dhcpctl decode [--hex FILE | --pcap FILE] [--format text|json|yaml]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "hex",
						Usage:   "File holding the packet as hex, '-' for stdin.",
						Value:   "-",
						Aliases: []string{"x"},
					},
					&cli.StringFlag{
						Name:    "pcap",
						Usage:   "Capture file to read DHCP datagrams from.",
						Aliases: []string{"p"},
					},
					formatFlag(),
					&cli.BoolFlag{
						Name:  "validate",
						Usage: "Report DHCP message rule violations.",
					},
				},
				Action: runDecode,
			},
			{
				Name:      "encode",
				Usage:     "Build a packet from a TOML template and print it as hex.",
				UsageText: "dhcpctl encode [--out FILE] [--pcap-out FILE] TEMPLATE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Usage:   "Also write the raw packet bytes to this file.",
						Aliases: []string{"o"},
					},
					&cli.StringFlag{
						Name:  "pcap-out",
						Usage: "Also write the packet as a one frame pcap capture.",
					},
					&cli.BoolFlag{
						Name:  "no-validate",
						Usage: "Skip DHCP message rule checks.",
					},
				},
				Action: runEncode,
			},
			{
				Name:      "template",
				Usage:     "Print or write a sample packet template.",
				UsageText: "dhcpctl template [--out FILE [--force]] " + strings.Join(config.TemplateKinds(), "|"),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Usage:   "Write the template to this file instead of stdout.",
						Aliases: []string{"o"},
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file.",
					},
				},
				Action: runTemplate,
			},
			{
				Name:      "listen",
				Usage:     "Run the UDP endpoint, logging every decoded request.",
				UsageText: "dhcpctl listen [--config FILE] [--addr ADDR] [--admin ADDR]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Usage:   "TOML listener configuration.",
						Aliases: []string{"c"},
					},
					&cli.StringFlag{
						Name:  "addr",
						Usage: "UDP listen address.",
					},
					&cli.StringFlag{
						Name:  "admin",
						Usage: "Admin HTTP address for /health, /ready and /metrics; empty disables it.",
					},
					&cli.BoolFlag{
						Name:  "no-validate",
						Usage: "Pass messages that break DHCP message rules to the handler.",
					},
				},
				Action: runListen,
			},
			{
				Name:   "options",
				Usage:  "List the option registry.",
				Flags:  []cli.Flag{formatFlag()},
				Action: func(c *cli.Context) error { return renderRegistry(c.App.Writer, c.String("format")) },
			},
		},
	}
}

func runDecode(c *cli.Context) error {
	r, err := newRenderer(c.App.Writer, c.String("format"))
	if err != nil {
		return err
	}
	defer r.close()

	if path := c.String("pcap"); path != "" {
		return decodeCapture(c, r, path)
	}

	b, err := readHex(c.App.Reader, c.String("hex"))
	if err != nil {
		return err
	}
	p, err := protocol.Parse(b)
	observability.RecordCodecPacket(observability.DirectionDecode, resultLabel(err))
	if err != nil {
		if rerr := r.failure(err, netip.AddrPort{}, netip.AddrPort{}); rerr != nil {
			return rerr
		}
		return err
	}
	if c.Bool("validate") {
		reportValidation(c.App.ErrWriter, p)
	}
	return r.packet(p, netip.AddrPort{}, netip.AddrPort{})
}

func decodeCapture(c *cli.Context, r *renderer, path string) error {
	datagrams, err := capture.ReadFile(path)
	if err != nil {
		return err
	}
	for _, d := range datagrams {
		p, err := protocol.Parse(d.Payload)
		observability.RecordCodecPacket(observability.DirectionDecode, resultLabel(err))
		if err != nil {
			if rerr := r.failure(err, d.Src, d.Dst); rerr != nil {
				return rerr
			}
			continue
		}
		if c.Bool("validate") {
			reportValidation(c.App.ErrWriter, p)
		}
		if err := r.packet(p, d.Src, d.Dst); err != nil {
			return err
		}
	}
	log.Debug().Str("path", path).Int("datagrams", len(datagrams)).Msg("dhcpctl.decode capture")
	return nil
}

func reportValidation(w io.Writer, p *protocol.Packet) {
	if err := schema.Validate(p); err != nil {
		fmt.Fprintf(w, "xid=%#08x %v\n", p.XID, err)
	}
}

func resultLabel(err error) string {
	if err == nil {
		return observability.ResultOK
	}
	return protocol.VariantName(err)
}

// readHex reads hex digits from path or stdin, ignoring whitespace, colons
// and a leading 0x.
func readHex(stdin io.Reader, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read hex: %w", err)
	}
	digits := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, string(bytes.TrimSpace(data)))
	digits = strings.TrimPrefix(strings.TrimPrefix(digits, "0x"), "0X")
	b, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("read hex: %w", err)
	}
	return b, nil
}

func runEncode(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("encode: expected one template path")
	}
	tpl, err := config.LoadPacketTemplate(c.Args().First())
	if err != nil {
		return err
	}
	p, err := tpl.Build()
	if err != nil {
		return err
	}
	if !c.Bool("no-validate") {
		if err := schema.Validate(p); err != nil {
			return err
		}
	}
	b := p.Serialise()
	observability.RecordCodecPacket(observability.DirectionEncode, observability.ResultOK)

	if path := c.String("out"); path != "" {
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return err
		}
	}
	if path := c.String("pcap-out"); path != "" {
		if err := writeCapture(path, p, b); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(c.App.Writer, hex.EncodeToString(b))
	return err
}

// writeCapture frames b the way it would appear on a segment with no
// relay: requests from 0.0.0.0:68, replies from siaddr:67, both broadcast.
func writeCapture(path string, p *protocol.Packet, b []byte) error {
	bcast := netip.AddrFrom4([4]byte{255, 255, 255, 255})
	d := capture.Datagram{Timestamp: time.Now(), Payload: b}
	if p.Op == protocol.OpBootReply {
		d.Src = netip.AddrPortFrom(p.SIAddr, endpoint.ServerPort)
		d.Dst = netip.AddrPortFrom(bcast, endpoint.ClientPort)
	} else {
		d.Src = netip.AddrPortFrom(netip.IPv4Unspecified(), endpoint.ClientPort)
		d.Dst = netip.AddrPortFrom(bcast, endpoint.ServerPort)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := capture.Write(f, []capture.Datagram{d}); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func runTemplate(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("template: expected one of %s", strings.Join(config.TemplateKinds(), ", "))
	}
	kind := c.Args().First()
	if path := c.String("out"); path != "" {
		return config.WriteTemplate(path, kind, c.Bool("force"))
	}
	tpl, err := config.Template(kind)
	if err != nil {
		return err
	}
	_, err = io.WriteString(c.App.Writer, tpl)
	return err
}

func runListen(c *cli.Context) error {
	cfg := defaultListenConfig()
	if path := c.String("config"); path != "" {
		loaded, err := loadListenConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if c.IsSet("addr") {
		cfg.Endpoint.Addr = strings.TrimSpace(c.String("addr"))
	}
	if c.IsSet("admin") {
		cfg.AdminAddr = strings.TrimSpace(c.String("admin"))
	}
	if c.Bool("no-validate") {
		cfg.Endpoint.Validate = false
	}

	logger := log.Logger
	srv, err := endpoint.NewServer(cfg.Endpoint, endpoint.EchoInspector{Logger: logger}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	adminErr := make(chan error, 1)
	var admin *http.Server
	if cfg.AdminAddr != "" {
		admin = &http.Server{
			Addr:              cfg.AdminAddr,
			Handler:           observability.NewAdminRouter(logger, srv.Ready, cfg.CORSOrigins),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info().Str("addr", cfg.AdminAddr).Msg("dhcpctl.listen admin")
			adminErr <- admin.ListenAndServe()
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe(ctx)
	}()

	select {
	case err = <-serveErr:
	case aerr := <-adminErr:
		stop()
		<-serveErr
		if !errors.Is(aerr, http.ErrServerClosed) {
			err = fmt.Errorf("admin server: %w", aerr)
		}
	}
	if admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = admin.Shutdown(shutdownCtx)
	}
	return err
}

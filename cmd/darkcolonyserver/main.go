// Package main runs the Dark Colony lobby and battle relay server: a TCP
// listener on :8888 that admits clients into 8-slot rooms, relays lobby and
// battle commands, and keeps connections alive with lobby and battle pings.
package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/endotermic/Dark-Colony-Server/config"
	"github.com/endotermic/Dark-Colony-Server/internal/lobby"
	"github.com/endotermic/Dark-Colony-Server/internal/transport"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		With().Timestamp().Str("component", "darkcolonyserver").Logger()

	cfg := config.LoadConfig()
	server := lobby.NewServer(cfg, log)

	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", addr).Msg("failed to bind")
	}
	log.Info().Str("addr", addr).Msg("listening")

	stop := make(chan struct{})
	server.RunTickers(stop)
	go logStatsPeriodically(log, server, stop)

	go acceptLoop(log, listener, server)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	close(stop)
	listener.Close()
}

func acceptLoop(log zerolog.Logger, listener net.Listener, server *lobby.Server) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Warn().Err(err).Msg("accept failed, stopping accept loop")
			return
		}
		go handleConnection(log, conn, server)
	}
}

func handleConnection(log zerolog.Logger, raw net.Conn, server *lobby.Server) {
	connLog := log.With().Str("remote", raw.RemoteAddr().String()).Logger()
	conn := transport.NewTCPConn(raw, connLog)

	session := server.Accept(conn)
	if session == nil {
		return
	}

	err := conn.ReadLoop(func(chunk []byte) {
		server.Dispatch(session, chunk)
	})
	reason := "connection closed"
	if err != nil {
		reason = err.Error()
	}
	server.Disconnect(session, reason)
}

func logStatsPeriodically(log zerolog.Logger, server *lobby.Server, stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			stats := server.Stats()
			if stats.TotalRooms > 0 || stats.TotalClients > 0 {
				log.Info().Int("rooms", stats.TotalRooms).Int("clients", stats.TotalClients).Msg("stats")
			}
		}
	}
}

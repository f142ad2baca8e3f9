package main

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/driftline/signalcore/internal/dispatcher"
	"github.com/driftline/signalcore/internal/protocol"
	"github.com/driftline/signalcore/internal/session"
	"github.com/driftline/signalcore/internal/ws"
)

func main() {
	config := ws.DefaultServerConfig()

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if v := os.Getenv("WORKER_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.WorkerPoolSize = n
		}
	}
	if v := os.Getenv("MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.MaxConnections = n
		}
	}
	if v := os.Getenv("READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.ReadTimeout = d
		}
	}
	if v := os.Getenv("WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.WriteTimeout = d
		}
	}
	devMode := os.Getenv("DEV_MODE") == "true"

	log.Printf("signalcore server starting")
	log.Printf("  listen_addr:     %s", config.ListenAddr)
	log.Printf("  worker_pool:     %d", config.WorkerPoolSize)
	log.Printf("  max_connections: %d", config.MaxConnections)
	log.Printf("  read_timeout:    %s", config.ReadTimeout)
	log.Printf("  write_timeout:   %s", config.WriteTimeout)
	log.Printf("  dev_mode:        %v", devMode)

	// core is declared before the dispatcher handlers that close over it;
	// it is assigned once the transport server (its Emitter) exists.
	var core *session.Core

	disp := dispatcher.New()

	disp.Register(protocol.TypeFindPartner, func(clientID string, raw []byte) {
		var msg protocol.FindPartnerMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("find_partner: malformed payload from %s: %v", clientID, err)
			return
		}
		core.FindPartner(clientID, msg.Interests)
	})

	disp.Register(protocol.TypeSendMessage, func(clientID string, raw []byte) {
		var msg protocol.SendMessageMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("send_message: malformed payload from %s: %v", clientID, err)
			return
		}
		core.SendMessage(clientID, msg.Text)
	})

	disp.Register(protocol.TypeOffer, func(clientID string, raw []byte) {
		var msg protocol.OfferMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("offer: malformed payload from %s: %v", clientID, err)
			return
		}
		core.Offer(clientID, msg.Offer)
	})

	disp.Register(protocol.TypeAnswer, func(clientID string, raw []byte) {
		var msg protocol.AnswerMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("answer: malformed payload from %s: %v", clientID, err)
			return
		}
		core.Answer(clientID, msg.To, msg.Answer)
	})

	disp.Register(protocol.TypeIceCandidate, func(clientID string, raw []byte) {
		var msg protocol.IceCandidateMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("ice-candidate: malformed payload from %s: %v", clientID, err)
			return
		}
		core.IceCandidate(clientID, msg.Candidate)
	})

	disp.Register(protocol.TypeStopVideo, func(clientID string, raw []byte) {
		core.StopVideo(clientID)
	})

	disp.Register(protocol.TypeSkip, func(clientID string, raw []byte) {
		var msg protocol.SkipMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("skip: malformed payload from %s: %v", clientID, err)
			return
		}
		core.Skip(clientID, msg.Interests)
	})

	disp.Register(protocol.TypeLeaveChat, func(clientID string, raw []byte) {
		core.LeaveChat(clientID)
	})

	server := ws.NewServer(config, disp.Dispatch)
	core = session.New(server)

	server.SetOnConnect(func(clientID string) {
		core.Connect(clientID)
	})
	server.SetOnDisconnect(func(clientID string) {
		core.Disconnect(clientID)
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, initiating graceful shutdown...", sig)
		if err := server.Shutdown(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

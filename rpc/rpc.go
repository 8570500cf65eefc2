package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/baucua-server/logger"
	"github.com/wfunc/baucua-server/models"
	"github.com/wfunc/baucua-server/room"
	"github.com/wfunc/baucua-server/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server and registers the admin service.
func NewServer(addr string, admin *AdminService) (*Server, error) {
	if err := rpc.RegisterName("Admin", admin); err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes operational queries over net/rpc.
type AdminService struct {
	registry *room.Registry
	archiver *services.RoundArchiver
}

func NewAdminService(registry *room.Registry, archiver *services.RoundArchiver) *AdminService {
	return &AdminService{registry: registry, archiver: archiver}
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []room.RoomSummary
}

// ListRooms returns a summary of every open room.
func (a *AdminService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	reply.Rooms = a.registry.Summaries()
	return nil
}

type RoomStatsArgs struct {
	RoomID string
}

type RoomStatsReply struct {
	Stats *models.RoomStats
}

// RoomStats returns the archived aggregate for a room.
func (a *AdminService) RoomStats(args *RoomStatsArgs, reply *RoomStatsReply) error {
	stats, err := a.archiver.Stats(args.RoomID)
	if err != nil {
		return err
	}
	reply.Stats = stats
	return nil
}

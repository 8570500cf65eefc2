package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/baucua-server/broadcast"
	"github.com/wfunc/baucua-server/config"
	"github.com/wfunc/baucua-server/logger"
	"github.com/wfunc/baucua-server/monitor"
	"github.com/wfunc/baucua-server/network"
	"github.com/wfunc/baucua-server/presence"
	"github.com/wfunc/baucua-server/room"
	baucua_rpc "github.com/wfunc/baucua-server/rpc"
	"github.com/wfunc/baucua-server/services"
	"github.com/wfunc/baucua-server/session"
	"github.com/wfunc/baucua-server/timer"
)

type GameServer struct {
	cfg      *config.Config
	upgrader websocket.Upgrader

	registry    *room.Registry
	sessions    *session.Manager
	presence    *presence.Controller
	timers      *timer.Manager
	broadcaster broadcast.Broadcaster
	archiver    *services.RoundArchiver
	monitor     *monitor.Monitor
	rpcServer   *baucua_rpc.Server

	shutdownChan chan struct{}
}

func NewGameServer(cfg *config.Config, archiver *services.RoundArchiver, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		cfg: cfg,
		registry: room.NewRegistry(room.Config{
			MaxPlayers:           cfg.Game.MaxPlayers,
			MaxHistory:           cfg.Game.MaxHistory,
			InitialPlayerBalance: cfg.Game.InitialPlayerBalance,
			InitialBankerBalance: cfg.Game.InitialBankerBalance,
		}),
		sessions:     session.NewManager(),
		timers:       timer.NewManager(),
		archiver:     archiver,
		monitor:      mon,
		shutdownChan: make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.sessions)

	// 掉线宽限控制器；房间级后果由 GameServer 自己消费并广播
	s.presence = presence.NewController(s.registry, s.timers, s, cfg.Game.DisconnectGrace())

	// 初始化RPC服务器
	rpcServer, err := baucua_rpc.NewServer(cfg.Server.RPCAddress,
		baucua_rpc.NewAdminService(s.registry, archiver))
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	return http.ListenAndServe(s.cfg.Server.HTTPAddress, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timers.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessions.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.monitor.DecOnlinePlayers()
		s.sessions.Remove(sess.GetID())
		s.handleConnectionLost(sess)
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

// handleConnectionLost 连接断开（非主动离开）：座位交给宽限控制器保管
func (s *GameServer) handleConnectionLost(sess *session.Session) {
	playerID := sess.PlayerID()
	roomID := sess.RoomID()
	if playerID == "" || roomID == "" {
		return
	}

	s.presence.HandleDisconnect(playerID)
	s.broadcaster.BroadcastToRoom(roomID, network.MsgTypePlayerDisconnected, network.PlayerPresenceNotify{
		PlayerID: playerID,
		IsHost:   sess.IsHost(),
	})
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	s.monitor.IncMessagesReceived()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess, packet)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.handleLeaveRoom(sess)
	case network.MsgTypeReconnect:
		s.handleReconnect(sess, packet)
	case network.MsgTypeRoomList:
		s.handleRoomList(sess)
	case network.MsgTypeSetWager:
		s.handleSetWager(sess, packet)
	case network.MsgTypeResetWager:
		s.handleResetWager(sess)
	case network.MsgTypeConfirmWager:
		s.handleConfirmWager(sess)
	case network.MsgTypeUnconfirmWager:
		s.handleUnconfirmWager(sess)
	case network.MsgTypeStartRoll:
		s.handleStartRoll(sess)
	case network.MsgTypeSetBalance:
		s.handleSetBalance(sess, packet)
	case network.MsgTypeSetBankerBalance:
		s.handleSetBankerBalance(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}

	s.monitor.ObserveMessageLatency(time.Since(start))
}

// sendError 把业务错误回给发起请求的客户端
func (s *GameServer) sendError(sess *session.Session, err error) {
	var roomErr *room.Error
	if !errors.As(err, &roomErr) {
		roomErr = &room.Error{Code: "internal", Message: err.Error()}
	}
	data, _ := json.Marshal(network.ErrorResponse{
		Code:    roomErr.Code,
		Message: roomErr.Message,
		Fatal:   roomErr.Fatal,
	})
	sess.Send(network.MsgTypeError, data)
}

func (s *GameServer) sendJSON(sess *session.Session, msgID uint16, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Failed to marshal response for msg %d: %v", msgID, err)
		return
	}
	sess.Send(msgID, data)
}

// roomOf resolves the room the session is bound to.
func (s *GameServer) roomOf(sess *session.Session) (*room.Room, bool) {
	roomID := sess.RoomID()
	if roomID == "" {
		s.sendError(sess, room.ErrRoomNotFound)
		return nil, false
	}
	r, exists := s.registry.GetRoom(roomID)
	if !exists {
		s.sendError(sess, room.ErrRoomNotFound)
		return nil, false
	}
	return r, true
}

// --- 房间生命周期 ---

func (s *GameServer) handleCreateRoom(sess *session.Session, packet *network.Packet) {
	var req network.CreateRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, room.ErrInvalidAmount)
		return
	}
	banker, ok := req.BankerBalance.Int64()
	if !ok {
		s.sendError(sess, room.ErrInvalidBalance)
		return
	}

	hostID := uuid.New().String()
	r := s.registry.CreateRoom(hostID, req.HostName, banker)
	sess.Bind(hostID, r.ID, true)
	s.presence.Track(hostID, r.ID)
	s.monitor.SetActiveRooms(s.registry.Count())
	s.broadcastLobby()

	logger.Log.Infof("Session %s created room %s as host %s", sess.GetID(), r.ID, hostID)

	s.sendJSON(sess, network.MsgTypeRoomJoined, network.RoomJoinedResponse{
		PlayerID: hostID,
		IsHost:   true,
		Room:     r.State(),
	})
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	var req network.JoinRoomRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, room.ErrInvalidAmount)
		return
	}
	balance, ok := req.Balance.Int64()
	if !ok {
		s.sendError(sess, room.ErrInvalidBalance)
		return
	}

	r, exists := s.registry.GetRoom(req.RoomID)
	if !exists {
		s.sendError(sess, room.ErrRoomNotFound)
		return
	}

	// 带已有座位id的加入走重连路径：AddPlayer 只恢复在线标记
	playerID := req.PlayerID
	if playerID == "" {
		playerID = uuid.New().String()
	}
	p, existed, err := r.AddPlayer(playerID, req.PlayerName, balance)
	if err != nil {
		s.sendError(sess, err)
		return
	}
	sess.Bind(playerID, r.ID, false)
	s.presence.Track(playerID, r.ID)

	logger.Log.Infof("Session %s joined room %s as player %s (rejoin=%v)", sess.GetID(), r.ID, playerID, existed)

	s.sendJSON(sess, network.MsgTypeRoomJoined, network.RoomJoinedResponse{
		PlayerID: playerID,
		IsHost:   false,
		Room:     r.State(),
	})
	if existed {
		s.broadcaster.BroadcastToRoomExcept(r.ID, playerID, network.MsgTypePlayerReconnected,
			network.PlayerPresenceNotify{PlayerID: playerID})
	} else {
		s.broadcaster.BroadcastToRoomExcept(r.ID, playerID, network.MsgTypePlayerJoined,
			network.PlayerJoinedNotify{Player: p})
	}
}

func (s *GameServer) handleReconnect(sess *session.Session, packet *network.Packet) {
	var req network.ReconnectRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil || req.PlayerID == "" {
		s.sendError(sess, room.ErrPlayerNotFound)
		return
	}

	r, ok := s.presence.HandleReconnect(req.PlayerID)
	if !ok {
		s.sendError(sess, room.ErrRoomClosed)
		return
	}
	isHost := r.IsHost(req.PlayerID)
	sess.Bind(req.PlayerID, r.ID, isHost)

	logger.Log.Infof("Player %s reconnected to room %s", req.PlayerID, r.ID)

	s.sendJSON(sess, network.MsgTypeRoomJoined, network.RoomJoinedResponse{
		PlayerID: req.PlayerID,
		IsHost:   isHost,
		Room:     r.State(),
	})
	s.broadcaster.BroadcastToRoomExcept(r.ID, req.PlayerID, network.MsgTypePlayerReconnected,
		network.PlayerPresenceNotify{PlayerID: req.PlayerID, IsHost: isHost})
}

// handleLeaveRoom 主动离开：立即腾出座位，不走宽限窗口
func (s *GameServer) handleLeaveRoom(sess *session.Session) {
	playerID := sess.PlayerID()
	r, ok := s.roomOf(sess)
	if !ok {
		return
	}

	if sess.IsHost() {
		s.failoverHost(r)
	} else {
		r.RemovePlayer(playerID)
		s.broadcaster.BroadcastToRoom(r.ID, network.MsgTypePlayerLeft,
			network.PlayerLeftNotify{PlayerID: playerID})
	}
	sess.ClearRoom()
	s.presence.Forget(playerID)
	s.monitor.SetActiveRooms(s.registry.Count())
}

// failoverHost 房主主动离开：第一个在线玩家接庄，否则关房
func (s *GameServer) failoverHost(r *room.Room) {
	newHostID, newHostName, ok := r.TransferHost()
	if !ok {
		s.archiver.ArchiveRoomClose(r.State())
		s.registry.RemoveRoom(r.ID)
		s.RoomClosed(r.ID)
		return
	}
	s.HostChanged(r.ID, newHostID, newHostName)
}

func (s *GameServer) handleRoomList(sess *session.Session) {
	s.sendJSON(sess, network.MsgTypeRoomList, network.RoomListResponse{
		Rooms: s.registry.Summaries(),
	})
}

// broadcastLobby 房间列表变化时推给所有尚未进房的会话
func (s *GameServer) broadcastLobby() {
	data, err := json.Marshal(network.RoomListResponse{Rooms: s.registry.Summaries()})
	if err != nil {
		return
	}
	for _, member := range s.sessions.All() {
		if member.RoomID() == "" {
			member.Send(network.MsgTypeRoomList, data)
		}
	}
}

// --- 下注 ---

func (s *GameServer) handleSetWager(sess *session.Session, packet *network.Packet) {
	var req network.SetWagerRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, room.ErrInvalidAmount)
		return
	}
	symbol, ok := room.ParseSymbol(req.Symbol)
	if !ok {
		s.sendError(sess, room.ErrInvalidAmount)
		return
	}
	amount, ok := req.Amount.Int64()
	if !ok {
		s.sendError(sess, room.ErrInvalidAmount)
		return
	}

	r, ok := s.roomOf(sess)
	if !ok {
		return
	}
	stakes, err := r.SetWager(sess.PlayerID(), symbol, amount)
	if err != nil {
		s.sendError(sess, err)
		return
	}
	s.monitor.IncWagersPlaced()
	s.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeWagerUpdated,
		network.WagerUpdatedNotify{PlayerID: sess.PlayerID(), Stakes: stakes})
}

func (s *GameServer) handleResetWager(sess *session.Session) {
	r, ok := s.roomOf(sess)
	if !ok {
		return
	}
	stakes, err := r.ResetWager(sess.PlayerID())
	if err != nil {
		s.sendError(sess, err)
		return
	}
	s.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeWagerUpdated,
		network.WagerUpdatedNotify{PlayerID: sess.PlayerID(), Stakes: stakes})
}

func (s *GameServer) handleConfirmWager(sess *session.Session) {
	r, ok := s.roomOf(sess)
	if !ok {
		return
	}
	confirmed, err := r.ConfirmWager(sess.PlayerID())
	if err != nil {
		s.sendError(sess, err)
		return
	}
	s.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeConfirmUpdated,
		network.ConfirmUpdatedNotify{PlayerID: sess.PlayerID(), Confirmed: true, Players: confirmed})
}

func (s *GameServer) handleUnconfirmWager(sess *session.Session) {
	r, ok := s.roomOf(sess)
	if !ok {
		return
	}
	confirmed, err := r.UnconfirmWager(sess.PlayerID())
	if err != nil {
		s.sendError(sess, err)
		return
	}
	s.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeConfirmUpdated,
		network.ConfirmUpdatedNotify{PlayerID: sess.PlayerID(), Confirmed: false, Players: confirmed})
}

// --- 掷骰 ---

func (s *GameServer) handleStartRoll(sess *session.Session) {
	r, ok := s.roomOf(sess)
	if !ok {
		return
	}
	if err := r.StartRoll(sess.PlayerID()); err != nil {
		s.sendError(sess, err)
		return
	}

	s.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeRollingStarted,
		network.RollingStartedNotify{Players: r.ConfirmedPlayers()})

	roomID := r.ID
	s.timers.Add(s.cfg.Game.RollDuration(), 0, func() {
		s.resolveRoll(roomID)
	})
}

// resolveRoll 掷骰延迟到期后结算。房间可能在延迟期间被关闭。
func (s *GameServer) resolveRoll(roomID string) {
	r, exists := s.registry.GetRoom(roomID)
	if !exists {
		return
	}
	result, err := r.FinishRoll()
	if err != nil {
		logger.Log.Warnf("Roll resolution skipped for room %s: %v", roomID, err)
		return
	}

	s.monitor.IncRoundsSettled()
	s.broadcaster.BroadcastToRoom(roomID, network.MsgTypeRollResolved, network.RollResolvedNotify{
		Dice:           result.Dice,
		Results:        result.Results,
		History:        result.History,
		BankerBalance:  result.BankerBalance,
		UpdatedPlayers: result.UpdatedPlayers,
	})
	s.archiver.ArchiveRound(roomID, result.History)
}

// --- 余额调整 ---

func (s *GameServer) handleSetBalance(sess *session.Session, packet *network.Packet) {
	var req network.SetBalanceRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, room.ErrInvalidBalance)
		return
	}
	amount, ok := req.Amount.Int64()
	if !ok {
		s.sendError(sess, room.ErrInvalidBalance)
		return
	}

	r, ok := s.roomOf(sess)
	if !ok {
		return
	}
	if !sess.IsHost() {
		s.sendError(sess, room.ErrNotHost)
		return
	}
	if err := r.SetBalance(req.PlayerID, amount); err != nil {
		s.sendError(sess, err)
		return
	}
	s.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeBalanceUpdated,
		network.BalanceUpdatedNotify{PlayerID: req.PlayerID, Balance: amount})
}

func (s *GameServer) handleSetBankerBalance(sess *session.Session, packet *network.Packet) {
	var req network.SetBankerBalanceRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, room.ErrInvalidBalance)
		return
	}
	amount, ok := req.Amount.Int64()
	if !ok {
		s.sendError(sess, room.ErrInvalidBalance)
		return
	}

	r, ok := s.roomOf(sess)
	if !ok {
		return
	}
	if !sess.IsHost() {
		s.sendError(sess, room.ErrNotHost)
		return
	}
	if err := r.SetBankerBalance(amount); err != nil {
		s.sendError(sess, err)
		return
	}
	s.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeBalanceUpdated,
		network.BalanceUpdatedNotify{Balance: amount, Banker: true})
}

// --- presence.RoomEvents ---

// PlayerRemoved 宽限窗口到期后玩家被移除
func (s *GameServer) PlayerRemoved(roomID, playerID string) {
	s.broadcaster.BroadcastToRoom(roomID, network.MsgTypePlayerLeft,
		network.PlayerLeftNotify{PlayerID: playerID})
}

// HostChanged 房主易位：更新接庄玩家的会话标记并全房广播
func (s *GameServer) HostChanged(roomID, newHostID, newHostName string) {
	if hostSess, exists := s.sessions.GetByPlayerID(newHostID); exists {
		hostSess.SetHost(true)
	}
	s.broadcaster.BroadcastToRoom(roomID, network.MsgTypeHostChanged,
		network.HostChangedNotify{NewHostID: newHostID, NewHostName: newHostName})
}

// RoomClosed 房间关闭：通知所有残留会话并解绑
func (s *GameServer) RoomClosed(roomID string) {
	s.broadcaster.BroadcastToRoom(roomID, network.MsgTypeRoomClosed,
		network.RoomClosedNotify{RoomID: roomID, Reason: "host_left"})
	for _, member := range s.sessions.GetByRoomID(roomID) {
		s.presence.Forget(member.PlayerID())
		member.ClearRoom()
	}
	s.monitor.SetActiveRooms(s.registry.Count())
	s.broadcastLobby()
}

package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"log/slog"

	"physica/internal/api"
	"physica/internal/daemon"
	"physica/internal/logging"
	"physica/internal/logs"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Physica", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String("impact", "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String("impact", "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun physica stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.StartedAt = api.FormatTime(status.StartedAt)
	resp.LockPath = status.LockFilePath
	resp.RegistryPath = status.RegistryPath
	resp.LogPath = status.LogPath
	resp.Cartridges = api.FromSessions(status.Cartridges)
	resp.RunningGames = status.RunningGames
	resp.Monitor = api.FromMonitorStatus(status.Monitor)
	resp.Runtimes = status.Runtimes
	resp.Tools = api.FromToolStatuses(status.Tools)
	if status.Registry != nil {
		stats := api.FromSummary(status.Registry)
		resp.Registry = &stats
	}
	return nil
}

func (s *service) ListCartridges(_ ListCartridgesRequest, resp *ListCartridgesResponse) error {
	resp.Cartridges = api.FromSessions(s.daemon.ListCartridges())
	return nil
}

func (s *service) GetCartridge(req GetCartridgeRequest, resp *GetCartridgeResponse) error {
	info, err := s.daemon.GetCartridge(req.UUID)
	if err != nil {
		return err
	}
	resp.Cartridge = api.FromSession(info)
	return nil
}

func (s *service) Games(_ GamesRequest, resp *GamesResponse) error {
	entries, err := s.daemon.Games(s.ctx)
	if err != nil {
		return err
	}
	resp.Games = api.FromEntries(entries)
	return nil
}

func (s *service) Launch(req LaunchRequest, resp *LaunchResponse) error {
	s.log().Debug("launch requested", logging.String("uuid", req.UUID))
	if err := s.daemon.Launch(s.ctx, req.UUID); err != nil {
		return err
	}
	if info, err := s.daemon.GetCartridge(req.UUID); err == nil {
		resp.Cartridge = api.FromSession(info)
	}
	return nil
}

func (s *service) StopGame(req StopGameRequest, resp *StopGameResponse) error {
	s.log().Debug("stop game requested", logging.String("uuid", req.UUID))
	if err := s.daemon.StopGame(s.ctx, req.UUID); err != nil {
		return err
	}
	resp.Stopped = true
	return nil
}

func (s *service) IsGameRunning(req IsGameRunningRequest, resp *IsGameRunningResponse) error {
	resp.Running = s.daemon.IsGameRunning(req.UUID)
	return nil
}

func (s *service) Eject(req EjectRequest, resp *EjectResponse) error {
	s.log().Debug("eject requested", logging.String("uuid", req.UUID))
	result, err := s.daemon.Eject(s.ctx, req.UUID)
	resp.Device = result.Device
	resp.PoweredOff = result.PoweredOff
	return err
}

func (s *service) Refresh(_ RefreshRequest, resp *RefreshResponse) error {
	resp.Inserted, resp.Removed = s.daemon.Refresh(s.ctx)
	return nil
}

func (s *service) RemoveFromRegistry(req RemoveRequest, resp *RemoveResponse) error {
	if err := s.daemon.RemoveFromRegistry(s.ctx, req.UUID); err != nil {
		return err
	}
	resp.Removed = true
	s.log().Info("registry entry removed via IPC",
		logging.String(logging.FieldEventType, "registry_remove"),
		logging.String("uuid", req.UUID))
	return nil
}

func (s *service) UpdateMetadata(req UpdateMetadataRequest, resp *UpdateMetadataResponse) error {
	info, err := s.daemon.UpdateMetadata(s.ctx, req.UUID, req.Patch)
	if err != nil {
		return err
	}
	resp.Cartridge = api.FromSession(info)
	return nil
}

func (s *service) Playtime(req PlaytimeRequest, resp *PlaytimeResponse) error {
	info, err := s.daemon.Playtime(s.ctx, req.UUID)
	if err != nil {
		return err
	}
	resp.UUID = info.UUID
	resp.Name = info.Name
	resp.PlaytimeSeconds = info.PlaytimeSeconds
	resp.PlayCount = info.PlayCount
	resp.LastPlayed = info.LastPlayed
	return nil
}

func (s *service) Stats(_ StatsRequest, resp *StatsResponse) error {
	summary, err := s.daemon.Stats(s.ctx)
	if err != nil {
		return err
	}
	resp.Stats = api.FromSummary(summary)
	return nil
}

func (s *service) RegistryHealth(_ RegistryHealthRequest, resp *RegistryHealthResponse) error {
	health, err := s.daemon.RegistryHealth(s.ctx)
	if health != nil {
		resp.Path = health.Path
		resp.SizeBytes = health.SizeBytes
		resp.Entries = health.Entries
		resp.IntegrityOK = health.IntegrityOK
		resp.Issues = append(resp.Issues, health.Issues...)
	}
	return err
}

func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	ctx := s.ctx
	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait)
		defer cancel()
	}
	evts, next, err := s.daemon.Events(ctx, req.After, req.Limit, wait > 0)
	resp.Events = api.FromEvents(evts)
	resp.Next = next
	// An expired long poll is an empty answer, not a failure.
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
		return nil
	}
	return err
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	options := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, options)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	if err != nil && strings.TrimSpace(message) != "" {
		// The message already explains the failure to the caller.
		return nil
	}
	return err
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Info("daemon shutdown requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	s.daemon.RequestShutdown()
	resp.Stopped = true
	return nil
}

package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"physica/internal/api"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Physica.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListCartridges returns snapshots for all inserted cartridges.
func (c *Client) ListCartridges() (*ListCartridgesResponse, error) {
	var resp ListCartridgesResponse
	if err := c.client.Call("Physica.ListCartridges", ListCartridgesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetCartridge returns the snapshot for one inserted cartridge.
func (c *Client) GetCartridge(uuid string) (*GetCartridgeResponse, error) {
	var resp GetCartridgeResponse
	if err := c.client.Call("Physica.GetCartridge", GetCartridgeRequest{UUID: uuid}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Games returns every registry entry, inserted or not.
func (c *Client) Games() (*GamesResponse, error) {
	var resp GamesResponse
	if err := c.client.Call("Physica.Games", GamesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Launch starts the game on the given cartridge and returns once it is
// running.
func (c *Client) Launch(uuid string) (*LaunchResponse, error) {
	var resp LaunchResponse
	if err := c.client.Call("Physica.Launch", LaunchRequest{UUID: uuid}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StopGame terminates the running game on the given cartridge.
func (c *Client) StopGame(uuid string) (*StopGameResponse, error) {
	var resp StopGameResponse
	if err := c.client.Call("Physica.StopGame", StopGameRequest{UUID: uuid}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IsGameRunning reports whether the cartridge has a live game process.
func (c *Client) IsGameRunning(uuid string) (*IsGameRunningResponse, error) {
	var resp IsGameRunningResponse
	if err := c.client.Call("Physica.IsGameRunning", IsGameRunningRequest{UUID: uuid}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Eject unmounts and powers off an idle cartridge's backing device.
func (c *Client) Eject(uuid string) (*EjectResponse, error) {
	var resp EjectResponse
	if err := c.client.Call("Physica.Eject", EjectRequest{UUID: uuid}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh forces a detection rescan.
func (c *Client) Refresh() (*RefreshResponse, error) {
	var resp RefreshResponse
	if err := c.client.Call("Physica.Refresh", RefreshRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveFromRegistry deletes a game's registry history.
func (c *Client) RemoveFromRegistry(uuid string) (*RemoveResponse, error) {
	var resp RemoveResponse
	if err := c.client.Call("Physica.RemoveFromRegistry", RemoveRequest{UUID: uuid}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateMetadata applies a descriptor patch to an inserted cartridge.
func (c *Client) UpdateMetadata(uuid string, patch api.MetadataPatch) (*UpdateMetadataResponse, error) {
	var resp UpdateMetadataResponse
	if err := c.client.Call("Physica.UpdateMetadata", UpdateMetadataRequest{UUID: uuid, Patch: patch}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Playtime returns accumulated playtime for a game.
func (c *Client) Playtime(uuid string) (*PlaytimeResponse, error) {
	var resp PlaytimeResponse
	if err := c.client.Call("Physica.Playtime", PlaytimeRequest{UUID: uuid}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats returns library-wide registry totals.
func (c *Client) Stats() (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.client.Call("Physica.Stats", StatsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegistryHealth retrieves registry database diagnostics.
func (c *Client) RegistryHealth() (*RegistryHealthResponse, error) {
	var resp RegistryHealthResponse
	if err := c.client.Call("Physica.RegistryHealth", RegistryHealthRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events fetches lifecycle events after a sequence number, optionally
// long-polling.
func (c *Client) Events(req EventsRequest) (*EventsResponse, error) {
	var resp EventsResponse
	if err := c.client.Call("Physica.Events", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns log lines from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.client.Call("Physica.LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Physica.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon process to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Physica.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

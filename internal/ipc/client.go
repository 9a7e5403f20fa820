package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
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

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resources lists resource descriptors with cache state.
func (c *Client) Resources() (*ResourcesResponse, error) {
	var resp ResourcesResponse
	if err := c.call("Resources", ResourcesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FileExists checks one cache file.
func (c *Client) FileExists(fileName string) (bool, error) {
	var resp FileExistsResponse
	if err := c.call("FileExists", FileExistsRequest{FileName: fileName}, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// Download fetches one resource through the daemon.
func (c *Client) Download(req DownloadRequest) error {
	var resp DownloadResponse
	return c.call("Download", req, &resp)
}

// SetBackup records the source backup path.
func (c *Client) SetBackup(path string) error {
	var resp SetBackupResponse
	return c.call("SetBackup", SetBackupRequest{Path: path}, &resp)
}

// SetSave records the destination archive path.
func (c *Client) SetSave(path string) error {
	var resp SetSaveResponse
	return c.call("SetSave", SetSaveRequest{Path: path}, &resp)
}

// Selection fetches the current selection.
func (c *Client) Selection() (*SelectionResponse, error) {
	var resp SelectionResponse
	if err := c.call("Selection", SelectionRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Convert runs a conversion through the daemon.
func (c *Client) Convert(allowMissingScript bool) (*ConvertResponse, error) {
	var resp ConvertResponse
	if err := c.call("Convert", ConvertRequest{AllowMissingScript: allowMissingScript}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LogTail returns buffered log events from the daemon.
func (c *Client) LogTail(req LogTailRequest) (*LogTailResponse, error) {
	var resp LogTailResponse
	if err := c.call("LogTail", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryList returns recent conversion runs.
func (c *Client) HistoryList(limit int) (*HistoryListResponse, error) {
	var resp HistoryListResponse
	if err := c.call("HistoryList", HistoryListRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

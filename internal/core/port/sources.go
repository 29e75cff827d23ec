package port

import "context"

// Volume is one mounted volume as reported by the host. Name is the natural
// key of the volume (drive root or mount point).
type Volume struct {
	Name           string
	Label          string
	FileSystem     string
	Fixed          bool
	Ready          bool
	TotalBytes     uint64
	AvailableBytes uint64
}

type StorageSource interface {
	Volumes(ctx context.Context) ([]Volume, error)
}

type NetworkCard struct {
	Id                 string
	Name               string
	InterfaceType      string
	OperationalStatus  string
	SpeedBitsPerSecond int64
	BytesReceived      uint64
	BytesSent          uint64
	IncomingDiscarded  uint64
	IncomingErrors     uint64
	OutgoingDiscarded  uint64
	OutgoingErrors     uint64
	IpAddresses        []string
	MacAddress         string
	Gateways           []string
	DnsAddresses       []string
	DhcpEnabled        bool
}

type NetworkSource interface {
	NetworkCards(ctx context.Context) ([]NetworkCard, error)
}

type Display struct {
	// DeviceName is the native path-like name, e.g. card0-HDMI-A-1.
	DeviceName        string
	Name              string
	Primary           bool
	Width             int
	Height            int
	VirtualWidth      int
	VirtualHeight     int
	BitsPerPixel      int
	WorkingAreaWidth  int
	WorkingAreaHeight int
	RotatedDegrees    int
}

type DisplaySource interface {
	Displays(ctx context.Context) ([]Display, error)
}

type UserSession struct {
	User     string
	Terminal string
	Host     string
	// Active is false for sessions that are idle or detached.
	Active bool
	System bool
}

type UserSource interface {
	Sessions(ctx context.Context) ([]UserSession, error)
}

type ServiceSource interface {
	// ServiceState returns found=false when the service does not exist.
	ServiceState(ctx context.Context, name string) (state string, found bool, err error)
}

type CounterSource interface {
	Counter(ctx context.Context, category, counter, instance string) (float64, error)
}

// WebcamSource lists the names of the processes holding a video capture
// device open.
type WebcamSource interface {
	WebcamProcesses(ctx context.Context) ([]string, error)
}

type ProcessLauncher interface {
	Launch(command string) error
}

type KeySender interface {
	SendKey(key string) error
}

type URLLauncher interface {
	LaunchURL(url string, incognito bool) error
}

type DesktopSwitcher interface {
	SwitchDesktop(desktop string) error
}

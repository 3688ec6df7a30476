package util

// Filesystem locations for persisted controller data.
const (
	// ConfigDir holds the config file and the allow-list snapshot.
	ConfigDir = "/etc/proxflix"
	// ConfigFile is the key=value option file.
	ConfigFile = "/etc/proxflix/proxflix.conf"
	// AllowListFile is the persisted allow-list snapshot.
	AllowListFile = "/etc/proxflix/allowed-ips"
	// StateDir holds the controller state file.
	StateDir = "/var/lib/proxflix"
	// StateFile records container identity across invocations.
	StateFile = "/var/lib/proxflix/state.json"
)

// ContainerName is the name of the managed service container.
const ContainerName = "proxflix"

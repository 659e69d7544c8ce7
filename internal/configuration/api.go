package configuration

type ApiConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

type StatisticsConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

const (
	DefaultBusName    = "com.system76.PowerDaemon.Fan"
	DefaultObjectPath = "/com/system76/PowerDaemon/Fan"
)

type DBusConfig struct {
	Enabled bool `json:"enabled"`
	// System selects the system bus, otherwise the session bus is used
	System     bool   `json:"system"`
	BusName    string `json:"busName"`
	ObjectPath string `json:"objectPath"`
	// AllowedUids may call mutating methods in addition to root
	AllowedUids []int `json:"allowedUids"`
}

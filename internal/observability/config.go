package observability

// Config captures opt-in observability toggles that wire into the server.
type Config struct {
	// EnablePprof mounts net/http/pprof under /debug/pprof/.
	EnablePprof bool `yaml:"enablePprof" toml:"enable_pprof"`
}

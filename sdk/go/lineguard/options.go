package lineguard

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	dir    string
	caller string
}

// WithDir sets the config directory. Empty uses ~/.lineguard.
func WithDir(dir string) Option {
	return func(c *clientConfig) { c.dir = dir }
}

// WithCaller sets the identity every call acts as. Required.
func WithCaller(caller string) Option {
	return func(c *clientConfig) { c.caller = caller }
}

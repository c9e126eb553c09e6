package testutil

// Env is a fixed set of environment variables for commands and config
// loaders that take a lookup function instead of reading os.Getenv.
//
// The zero value is an empty environment.
type Env map[string]string

// Lookup has the signature of os.LookupEnv.
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

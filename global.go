package gitnative

import (
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native"
	"github.com/input-output-hk/catalyst-forge-libs/gitnative/native/gogit"
)

// lifecycle reference-counts engine use so global setup runs once per engine
// and teardown runs after the last repository using it is closed.
var lifecycle = struct {
	sync.Mutex
	refs map[native.Engine]int
}{refs: make(map[native.Engine]int)}

var (
	defaultEngineOnce sync.Once
	defaultEngineVal  native.Engine
)

// defaultEngine returns the process-wide production engine.
func defaultEngine() native.Engine {
	defaultEngineOnce.Do(func() {
		defaultEngineVal = gogit.New()
	})
	return defaultEngineVal
}

// retainEngine initializes the engine on first use and counts the reference.
func retainEngine(eng native.Engine) error {
	lifecycle.Lock()
	defer lifecycle.Unlock()
	if lifecycle.refs[eng] == 0 {
		if err := translate(eng, eng.InitLibrary()); err != nil {
			return WrapError(err, "engine init")
		}
	}
	lifecycle.refs[eng]++
	return nil
}

// releaseEngine drops one reference and shuts the engine down when the count
// reaches zero. Extra releases are ignored.
func releaseEngine(eng native.Engine) error {
	lifecycle.Lock()
	defer lifecycle.Unlock()
	n := lifecycle.refs[eng]
	if n == 0 {
		return nil
	}
	if n == 1 {
		delete(lifecycle.refs, eng)
		return translate(eng, eng.ShutdownLibrary())
	}
	lifecycle.refs[eng] = n - 1
	return nil
}

// Init performs global setup of the default engine. Repositories retain the
// engine on open and release it on close, so calling Init is only needed to
// pin the engine's global state across open/close cycles. It is idempotent in
// effect: repeated calls add references that Shutdown must balance.
func Init() error {
	return retainEngine(defaultEngine())
}

// Shutdown releases one Init reference, tearing down the default engine's
// global state when no references and no open repositories remain. Calling it
// without a matching Init is a no-op.
func Shutdown() error {
	return releaseEngine(defaultEngine())
}

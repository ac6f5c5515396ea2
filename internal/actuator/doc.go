// Package actuator drives the built-in haptic actuator of a trackpad.
//
// It owns the actuator session lifecycle: finding the right physical device
// among everything the OS device registry knows about, opening a handle to it
// lazily, caching that handle across calls, and transparently re-acquiring it
// when an actuation fails.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                          Session                             │
//	│                                                              │
//	│  Closed ──OpenActuator()──▶ Open ──CloseActuator()──▶ Closed │
//	│                              │                               │
//	│                   close fails│                               │
//	│                              ▼                               │
//	│                           Faulted (terminal)                 │
//	└──────────────┬───────────────────────────────┬───────────────┘
//	               │ FindDevice()                  │ Create/Open/Actuate/Close
//	               ▼                               ▼
//	┌──────────────────────────┐     ┌──────────────────────────────┐
//	│     DeviceRegistry       │     │      ActuationService        │
//	│ (IOKit registry, or the  │     │ (MultitouchSupport, or the   │
//	│  simulated backend)      │     │  simulated backend)          │
//	└──────────────────────────┘     └──────────────────────────────┘
//
// # Usage
//
//	session := actuator.NewSession(registry, service, actuator.DefaultOptions())
//	defer func() {
//	    if err := session.Close(); err != nil {
//	        // close failures are fatal: the driver state is unknown
//	        log.Error("closing actuator", "error", err)
//	        os.Exit(1)
//	    }
//	}()
//
//	if err := session.ActuatePattern(actuator.PatternStrong); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// A Session is NOT safe for concurrent use. It exclusively owns its handle;
// callers that actuate from several goroutines must serialise access
// themselves (see package haptic for a mutex-guarded controller).
//
// # Blocking
//
// Every operation is a synchronous call into the registry or the actuation
// service. There is no cancellation: a stuck driver call blocks the caller.
package actuator

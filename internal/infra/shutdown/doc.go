// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT/SIGTERM or for a component to escalate a
// fatal error, then runs the registered hooks in reverse order:
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	go func() { h.Escalate(<-mgr.Fatal()) }()
//	if err := h.Wait(); err != nil {
//		os.Exit(1)
//	}
package shutdown

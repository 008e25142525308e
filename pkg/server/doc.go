// Package server accepts game connections and runs the status and login
// exchanges of protocol 765.
//
// A Server answers server list pings, logs players in (optionally with
// encryption and compression) and hands the resulting connections to the
// application on Clients. Everything after login belongs to the caller.
//
//	srv, err := server.New(server.DefaultServerConfig(),
//	    server.WithMetrics(telemetry.NewMetrics()))
//	if err != nil {
//	    return err
//	}
//	go func() {
//	    for cl := range srv.Clients() {
//	        go play(cl)
//	    }
//	}()
//	return srv.ListenAndServe(ctx)
//
// The same exchanges are available over WebSocket on the admin listener's
// /ws endpoint, where binary messages carry the raw byte stream.
package server

// Package client dials a game server and runs the status and login
// exchanges from the player's side.
//
//	res, err := client.Ping(ctx, "localhost:25565")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Status.Description.Plain(), res.Latency)
//
// Addresses starting with ws:// or wss:// are dialed as WebSocket streams,
// everything else over TCP. A missing port defaults to 25565.
package client

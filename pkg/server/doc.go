// Package server runs the mcstructs inspection server.
//
// The HTTP side is a chi router:
//
//	GET  /healthz                          liveness probe
//	GET  /v1/encode?kind=varint&value=300  {"hex":"ac02","bytes":[172,2],"length":2}
//	POST /v1/decode?kind=varlong           hex body in, {"value":...,"length":...} out
//	GET  /metrics                          Prometheus exposition
//	GET  /ws                               packet echo over binary WebSocket messages
//
// Decode failures map to status codes: an overlong value is 422, truncated
// input or bad hex is 400.
//
// When TCPAddr is set, a raw packet listener also runs. A client that
// hands over with next state Status gets the server list ping exchange;
// any other next state switches the connection to echo mode.
package server

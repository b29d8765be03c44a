// Package endpoint runs a UDP listener that decodes DHCPv4 datagrams, hands
// them to a Handler and sends back whatever packet the handler returns.
//
// The loop is single goroutine. Malformed datagrams are counted, logged and
// dropped; they never stop the listener.
package endpoint

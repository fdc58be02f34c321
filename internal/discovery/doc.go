// Package discovery finds bank nodes on the local network over mDNS.
//
// Banks that want to be found advertise an "_http._tcp" service with TXT
// records describing the node:
//
//	node_type=BANK     required; other node types are ignored
//	protocol=https     optional, defaults to http
//	nickname=...       optional display name
//
// Results are prefill candidates for the connect screen and the scan command;
// nothing is stored until the user connects.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Banks must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery

// Package store persists the banks and validators a user has connected to.
//
// The store is a YAML document kept in the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/bankconnect/store.yaml or $HOME/.config/bankconnect/store.yaml
//   - macOS: $HOME/.config/bankconnect/store.yaml
//   - Windows: %LOCALAPPDATA%\bankconnect\store.yaml
//
// Nodes are keyed by their node path (protocol/ip/port), the same segment the
// router uses for overview routes:
//
//	version: 1
//	active_bank: http/143.110.137.54/80
//	banks:
//	  http/143.110.137.54/80:
//	    nickname: home bank
//	    address:
//	      ip_address: 143.110.137.54
//	      port: null
//	      protocol: http
//	    node_identifier: d5356888...
//	    last_connected: 2021-03-01T10:00:00Z
//
// Writes go to a temporary file that is renamed into place, so a crash never
// leaves a truncated store behind.
package store

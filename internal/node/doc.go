// Package node defines the addressing and configuration types shared by every
// part of bankconnect.
//
// A node is a bank or validator on the network, identified by protocol, IP
// address and an optional port. Nodes are addressed inside the application by
// a path segment of the form:
//
//	<protocol>/<ip_address>/<port>
//
// which is produced by FormatPathFromNode and reversed by ParsePath. The
// router uses this segment to build overview routes such as
// "/bank/http/143.110.137.54/80/overview".
//
// # JSON Shapes
//
// Address marshals to the connection payload sent to a bank:
//
//	{"ip_address": "10.0.0.5", "port": 8080, "protocol": "https"}
//
// A missing port is encoded as an explicit null. BankConfig and
// ValidatorConfig mirror the documents served at GET /config.
package node

// Package grid is the client-side proxy for arrays hosted on a grid
// server. An Array holds only the server's descriptor for the data;
// every operation builds one wire command, sends it through the
// session's transport, and decodes the single reply.
//
// Ownership boundary:
// - operand classification and all pre-send validation
// - the Array operation surface (arithmetic, indexing, reductions,
//   bulk transfer, persistence, release)
// - the Client session tying a transport to its configuration
//
// Nothing is cached beyond descriptor metadata and nothing is retried;
// a failed call is final for that call.
package grid

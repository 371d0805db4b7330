// Package wire implements the relay envelope format.
//
// Two shapes travel over the connection, both JSON objects holding one
// positional array:
//
//	request         {"req": [requestId, method, params, timestamp]}
//	response/event  {"res": [requestId, method, payload]}
//
// Envelope is the tagged union over the two shapes, validated here at the
// transport boundary so downstream components consume typed structures
// instead of re-checking loosely-typed data. Anything that parses as neither
// shape routes under RouteUnknown.
package wire

// Package client turns a single prompt plus an optional tool list into a final
// textual response, transparently executing as many tool-call rounds as the
// model requests and accounting the cost of every backend call.
//
// One Call runs this loop:
//
//	seed      conversation = [user: prompt]
//	dispatch  send conversation + tool schemas to the backend, record cost
//	branch    no tool calls -> finalize
//	tool      append assistant turn, resolve + invoke each call in order,
//	          append one tool result per call, back to dispatch
//	finalize  return content and the summed cost of this call
//
// Tool rounds are strictly sequential. Resolution, argument and invocation
// failures are reported to the model as "error: ..." tool results and never
// abort the call; a backend failure is fatal and wrapped as core.ErrTransport.
package client

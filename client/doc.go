// Package client implements the collection client for a REST member
// endpoint:
//
//	GET    /members?page={n}&limit={n}&q={term}   list, total in X-Total-Count
//	GET    /members/{id}
//	POST   /members                               create, server assigns id
//	PATCH  /members/{id}                          partial update
//	DELETE /members/{id}
//
// No call is retried. Transport failures surface as *member.NetworkError,
// 404s on item routes as *member.NotFoundError, 400/422 on writes as a
// server-side *member.ValidationError and every other non-2xx status as
// *member.ServerError.
package client

// Package services holds the application logic behind the driving ports:
// search, answering with citations, settings and result actions.
//
// Services see the outside world only through the driven ports. The AI
// services may be nil: a missing one narrows what a service can do instead
// of failing construction.
package services

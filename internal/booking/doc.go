// Package booking holds the session-scoped state of a single booking: the
// step flow from bus listing to issued ticket, the seat selection, the
// payment method selection, and the ticket qualification countdown.
//
// Nothing here touches the network or the database. Timers come from an
// injected clock.Clock so every transition can be driven from tests.
package booking

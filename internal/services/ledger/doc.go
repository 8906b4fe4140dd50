/*
Package ledger is the source of truth for every balance.

It owns the atomic composite postings behind the escrow lifecycle:

	Reserve  — debit available into reserved, open a hold, post a pending payment
	Settle   — release a hold into fee/earning transactions plus a remainder refund
	Release  — release a hold into a refund/compensation split (cancellation)
	Expire   — release an overdue hold back to available (external sweep)
	Credit   — post a completed top-up
	Debit    — post a completed withdrawal

Every posting runs inside one database transaction: the wallet rows involved
are locked in ascending ID order, balances are updated, transactions and an
outbox event are appended, and the whole unit commits or no-ops. Amounts are
fixed-point decimals; a transaction's signed amount counts toward the wallet
total once its status is completed.

The invariant available + reserved == sum(completed transaction amounts)
holds at every commit point.
*/
package ledger

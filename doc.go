/*
Package cntool drives a Cardano node's command line client to inspect
wallet balances and to build, sign and submit transactions: plain
transfers, stake key registration, stake pool registration and
delegation.

The node itself is treated as an external service reached through
cardano-cli; this package owns the arithmetic around it (input
selection, fee and change computation, balance conservation) and the
build/sign/submit pipeline.
*/

package cntool

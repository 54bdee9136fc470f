/*
Package escrow implements the settlement of bug bounties.

A bounty is deposited into a vault bound to a single vulnerability id. The
vault owns the funds until they are either released to the researcher or
refunded. Release happens when the registry authorizes it or when enough
approvers voted for it. Any approver can freeze a vault by raising a
dispute, which then must be resolved by the registry or the admin. After
EmergencyRefundTimeout has passed since the deposit anyone can return the
funds to the researcher.

The governance state (admin, registry, approver roster, approval threshold
and the pause switch) is a singleton record maintained through the gconf
package.
*/
package escrow

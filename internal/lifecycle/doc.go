// Package lifecycle drives a patch set through the interception facility:
// install every entry, switch the set live as one unit, and later switch
// it off again, restoring the original functions.
//
// Enabling is all-or-nothing. With SeparateRegisterEnable the manager
// installs entries one by one and undoes them in reverse order when an
// install or the activation fails. With CombinedActivation the facility
// performs install and activation in one step and reports failure as-is.
//
// Lifecycle errors surface once, to the caller of Enable or to the status
// returned by Init. Nothing is retried. Disabling a set that is not active
// is a logged no-op.
package lifecycle

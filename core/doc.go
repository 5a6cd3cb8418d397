// Package core contains the capability-resolution domain: contracts,
// adapter registry, policy resolver, and the resilient invoker. Adapters,
// stores, and transport glue must depend on this package; core must not
// depend on provider-specific code.
package core

// Package things provides a role guarded repository for Thing records plus
// the authentication pieces needed to know who is calling.
//
// Authorization gate:
//   - Rules such as HasRole("BOGUS") are evaluated by Check against the
//     Caller stored in the context. Check is a pure function: no logging, no
//     retries, no storage access. Denials return ErrAccessDenied and never
//     depend on the arguments of the guarded call, so a denied FindByID does
//     not reveal whether the id exists.
//   - A Policy holds type level rules, applied to every operation, and
//     method level rules for single operations. Both levels are evaluated
//     and both must pass.
//   - NewSecuredThings composes a Policy in front of any ThingRepository.
//     DefaultThingPolicy requires BOGUS on the repository and again on
//     FindByID.
//
// Entity store:
//   - NewThingsRepository is a bun backed ThingRepository. FindByID reports
//     missing records as an empty result, not an error.
//
// Identity:
//   - NewIdentityProvider holds a single principal built from an explicit
//     PrincipalConfig. The default principal is user/password with the USER
//     role only, so with DefaultThingPolicy every guarded call is denied.
//   - Authenticator verifies credentials, issues JWTs and resolves callers
//     from tokens or basic credentials.
package things

// Package cowin is a client for the public CoWIN appointment API.
//
// It covers the two availability queries used by the monitor and the
// location lookups used to pick districts:
//
//   - [Gateway.QueryByDistrict]: GET /appointment/sessions/public/calendarByDistrict
//   - [Gateway.QueryByPinCode]: GET /appointment/sessions/public/calendarByPin
//   - [Gateway.States]: GET /admin/location/states
//   - [Gateway.Districts]: GET /admin/location/districts/{stateId}
//
// Every failure is reported as a [TransportError]. The gateway does not
// retry. [Directory] caches location data for the lifetime of a session.
package cowin

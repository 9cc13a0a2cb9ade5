// Package web serves the portal's HTML pages.
//
// Every page goes through the same sequence before it renders: backend
// health, configuration, login state, provider profile, backend user and
// tenant resolution. The first step that fails stops the request with a
// banner. Form posts follow post/redirect/get; outcomes travel to the next
// page as session notices.
package web

// Package web is a browser based dataset explorer: a gallery of every photo
// with its ground-truth boxes, served from a local HTTP listener.
package web

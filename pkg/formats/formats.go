// Package formats reads model files that can seed a scene.
package formats

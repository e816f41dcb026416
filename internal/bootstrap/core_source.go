package bootstrap

// coreLibrarySource is the embedded clojure.core library loaded via
// loadCoreLibrary during Init (spec §4.L "embedded library table" —
// this is that table's one built-in entry, always present before any
// filesystem search path is consulted). Kept deliberately small: just
// enough of clojure.core's self-hosted layer, defined in terms of the
// native builtins/macros registerCoreBuiltins and registerCoreMacros
// already installed, to exercise the macro expander and the tree-walk
// engine during bootstrap the way spec §4.B's ordering requires.
const coreLibrarySource = `
(defn inc [x] (+ x 1))
(defn dec [x] (+ x -1))
(defn identity [x] x)
(defn constantly [x] (fn* [& args] x))
(defn complement [f] (fn* [& args] (not (apply f args))))
(defn second [coll] (first (rest coll)))
(defn ffirst [coll] (first (first coll)))
(defn nfirst [coll] (rest (first coll)))
(defn nil? [x] (= x nil))
(defn true? [x] (= x true))
(defn false? [x] (= x false))
(defn zero? [x] (= x 0))
(defn pos? [x] (> x 0))
(defn neg? [x] (< x 0))
(defn empty? [coll] (= (count coll) 0))
(defn reduce
  [f init coll]
  (loop* [acc init coll coll]
    (if (empty? coll)
      acc
      (recur (f acc (first coll)) (rest coll)))))
(defn reverse
  [coll]
  (reduce (fn* [acc x] (cons x acc)) (list) coll))
(defn map
  [f coll]
  (loop* [acc (list) coll coll]
    (if (empty? coll)
      (reverse acc)
      (recur (cons (f (first coll)) acc) (rest coll)))))
(defn filter
  [pred coll]
  (loop* [acc (list) coll coll]
    (if (empty? coll)
      (reverse acc)
      (recur (if (pred (first coll)) (cons (first coll) acc) acc) (rest coll)))))
(defn concat
  [a b]
  (reduce (fn* [acc x] (cons x acc)) b (reverse a)))
(defn every?
  [pred coll]
  (if (empty? coll)
    true
    (if (pred (first coll))
      (every? pred (rest coll))
      false)))
`

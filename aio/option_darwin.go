package aio

// darwin has no O_DIRECT, see setNoCache.
const oDirect = 0
